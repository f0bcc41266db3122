package compute

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/ssh"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/hypervisor"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/ipam"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// CreateInstanceInput is what a caller supplies to provision a VM.
type CreateInstanceInput struct {
	ProjectID    idgen.ID
	HypervisorID idgen.ID
	VNetID       idgen.ID
	Name         string
	Node         string // hypervisor node to place the guest on
	CPUCores     int32
	MemoryBytes  int64
	DiskBytes    int64
}

// bastionSSHUser is the guest-side account cloud-init provisions and the
// bastion connection authenticates as.
const bastionSSHUser = "frn"

// CreateInstance runs the full provisioning sequence: allocate an id and a
// hypervisor-side vmid, materialise the cloud-init snippet, claim an
// address+MAC from the VNet's pool, create and wait on the guest at the
// hypervisor, resize its disk to the requested size, and insert the
// Instance row. Reconciliation with the authorization server, the bastion
// and the workload cluster is queued as operations rather than performed
// inline — see the operations package.
//
// A failure partway through unwinds what it can: a hypervisor create
// failure releases the claimed address and deletes the snippet; a resize
// failure additionally tears down the guest it just created.
func (s *Service) CreateInstance(ctx context.Context, principal authz.Principal, in CreateInstanceInput) (store.Instance, error) {
	if err := s.authorize(ctx, principal, "CreateInstance", "project", in.ProjectID.String()); err != nil {
		return store.Instance{}, err
	}

	root := store.New(s.store.Pool)
	hv, err := root.FindHypervisorByID(ctx, in.HypervisorID)
	if err != nil {
		return store.Instance{}, err
	}
	vnet, err := root.FindVNetByID(ctx, in.VNetID)
	if err != nil {
		return store.Instance{}, err
	}

	client := s.hypervisorClient(hv)

	id := idgen.New()
	vmid, err := client.ClusterNextID(ctx)
	if err != nil {
		return store.Instance{}, err
	}

	pub, priv, err := generateSSHKeypair()
	if err != nil {
		return store.Instance{}, err
	}

	snippetPath, err := s.writeSnippet(id, cloudInitSnippet(in.Name, pub))
	if err != nil {
		return store.Instance{}, err
	}

	var alloc store.IPAllocation
	err = s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)
		mac, err := ipam.GenerateMAC(ctx, q)
		if err != nil {
			return err
		}
		alloc, err = ipam.Allocate(ctx, q, ipam.AllocateInput{
			VNetID: in.VNetID,
			Kind:   store.IPKindDynamic,
			MAC:    &mac,
		})
		return err
	})
	if err != nil {
		_ = s.deleteSnippet(id)
		return store.Instance{}, err
	}

	prefix, err := subnetPrefix(vnet.Subnet)
	if err != nil {
		_ = s.deleteSnippet(id)
		_ = ipam.Release(ctx, root, alloc.ID)
		return store.Instance{}, err
	}

	config := hypervisor.VMConfig{
		VMID:      vmid,
		Name:      in.Name,
		Cores:     int(in.CPUCores),
		Memory:    in.MemoryBytes / (1024 * 1024),
		Net0:      fmt.Sprintf("virtio,bridge=%s,macaddr=%s", vnet.BridgeID, *alloc.MACAddress),
		IPConfig0: fmt.Sprintf("ip=%s/%s,gw=%s", alloc.Address, prefix, vnet.Gateway),
		Boot:      "order=scsi0",
		SCSIHW:    "virtio-scsi-pci",
		Serial0:   "socket",
		VGA:       "serial0",
		Agent:     "1",
		CiCustom:  snippetPath,
	}

	task, err := client.VMCreate(ctx, in.Node, config)
	if err != nil {
		_ = s.deleteSnippet(id)
		_ = ipam.Release(ctx, root, alloc.ID)
		return store.Instance{}, err
	}
	result, err := client.WaitForTaskCompletion(ctx, in.Node, task)
	if err != nil {
		_ = s.deleteSnippet(id)
		_ = ipam.Release(ctx, root, alloc.ID)
		return store.Instance{}, err
	}
	if result.Status != hypervisor.TaskOK {
		_ = s.deleteSnippet(id)
		_ = ipam.Release(ctx, root, alloc.ID)
		return store.Instance{}, apperr.HypervisorInternal(fmt.Sprintf("vm create task failed: %s", result.Detail))
	}

	// The import directive always reports the source image's size; an
	// explicit resize to the requested size is mandatory even when the
	// numbers already match, or later reads mislead callers.
	sizeGB := in.DiskBytes / (1024 * 1024 * 1024)
	if err := client.VMDiskResize(ctx, in.Node, vmid, "scsi0", fmt.Sprintf("%dG", sizeGB)); err != nil {
		_, _ = client.VMDelete(ctx, in.Node, vmid)
		_ = s.deleteSnippet(id)
		_ = ipam.Release(ctx, root, alloc.ID)
		return store.Instance{}, err
	}

	var inst store.Instance
	err = s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)

		var err error
		inst, err = q.CreateInstance(ctx, store.Instance{
			ID:             id,
			HypervisorID:   in.HypervisorID,
			ProjectID:      in.ProjectID,
			DistantID:      fmt.Sprintf("%d", vmid),
			IPv4:           alloc.Address,
			Name:           in.Name,
			Status:         store.InstanceProvisioning,
			MaxCPUCores:    in.CPUCores,
			MaxMemoryBytes: in.MemoryBytes,
			MaxDiskBytes:   in.DiskBytes,
		})
		if err != nil {
			return err
		}

		if _, err := operations.Enqueue(ctx, tx, operations.OpAuthzWriteRel, "instance", inst.ID, authzTupleInput{
			ObjectType:  "instance",
			ObjectID:    inst.ID.String(),
			Relation:    "Parent",
			SubjectType: "project",
			SubjectID:   in.ProjectID.String(),
		}, nil); err != nil {
			return fmt.Errorf("queuing parent relationship: %w", err)
		}

		// The bastion assigns agent identifiers server-side in a real
		// deployment; nothing observable here depends on that value beyond
		// round-tripping it into CreateConnection, so the instance's own id
		// is used as both the agent name and (pending the agent's actual
		// creation) its id.
		agentName := inst.ID.String()
		if _, err := operations.Enqueue(ctx, tx, operations.OpBastionCreateAgent, "instance", inst.ID, bastionCreateAgentInput{
			Name: agentName,
		}, nil); err != nil {
			return fmt.Errorf("queuing bastion agent: %w", err)
		}
		if _, err := operations.Enqueue(ctx, tx, operations.OpBastionCreateConnection, "instance", inst.ID, bastionCreateConnectionInput{
			Name:       agentName,
			AgentID:    agentName,
			User:       bastionSSHUser,
			PrivateKey: priv,
		}, nil); err != nil {
			return fmt.Errorf("queuing bastion connection: %w", err)
		}

		if _, err := operations.Enqueue(ctx, tx, operations.OpK8sGrantNamespace, "instance", inst.ID, k8sGrantInput{
			Namespace:   in.ProjectID.String(),
			SubjectType: "user",
			SubjectID:   principal.ID,
			ClusterRole: "edit",
		}, nil); err != nil {
			return fmt.Errorf("queuing namespace grant: %w", err)
		}

		return nil
	})
	if err != nil {
		return store.Instance{}, err
	}
	return inst, nil
}

// DeleteInstance marks an instance Deleting; the state machine worker
// drives the actual hypervisor teardown and releases its address once the
// guest is gone.
func (s *Service) DeleteInstance(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "DeleteInstance", "instance", id.String()); err != nil {
		return err
	}
	q := store.New(s.store.Pool)
	_, err := q.UpdateInstanceStatus(ctx, id, store.InstanceDeleting)
	return err
}

// StopInstance requests a guest power-off, driven to completion by the
// state machine worker.
func (s *Service) StopInstance(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "StopInstance", "instance", id.String()); err != nil {
		return err
	}
	q := store.New(s.store.Pool)
	_, err := q.UpdateInstanceStatus(ctx, id, store.InstanceStopping)
	return err
}

// StartInstance requests a guest power-on, driven to completion by the
// state machine worker.
func (s *Service) StartInstance(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "StartInstance", "instance", id.String()); err != nil {
		return err
	}
	q := store.New(s.store.Pool)
	_, err := q.UpdateInstanceStatus(ctx, id, store.InstanceStaging)
	return err
}

// generateSSHKeypair produces a fresh ed25519 keypair for a guest's bastion
// connection: an authorized_keys line embedded in its cloud-init snippet,
// and a PEM-encoded private key handed to the bastion executor. Nothing
// persists the private key beyond the bastion connection secret itself.
func generateSSHKeypair() (authorizedKey, privatePEM string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generating ssh keypair: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", "", fmt.Errorf("encoding ssh public key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return "", "", fmt.Errorf("encoding ssh private key: %w", err)
	}
	return string(ssh.MarshalAuthorizedKey(sshPub)), string(pem.EncodeToMemory(block)), nil
}

// subnetPrefix extracts the CIDR prefix length ("24") from a VNet's subnet,
// the shape ipconfig0 expects for the address this guest claims.
func subnetPrefix(cidr string) (string, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", fmt.Errorf("parsing subnet %q: %w", cidr, err)
	}
	ones, _ := ipnet.Mask.Size()
	return fmt.Sprintf("%d", ones), nil
}
