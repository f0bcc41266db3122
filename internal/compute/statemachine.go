package compute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/hypervisor"
	"github.com/France-Nuage/plateforme-sub000/internal/ipam"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// StateMachine drives instances through their transient statuses
// (Provisioning, Staging, Stopping, Deleting) by polling the hypervisor for
// the guest's actual power state and nudging it where needed. One tick
// claims a batch of transient instances and advances every one of them
// inside the same transaction that claimed it — unlike the operations
// pool's short claim-then-release pattern, the FOR UPDATE SKIP LOCKED row
// lock here is held for the whole poll-and-advance step, since an instance
// has no separate "being worked on" status to flip the way an Operation
// does.
type StateMachine struct {
	service      *Service
	logger       *slog.Logger
	batchSize    int
	pollInterval time.Duration
}

// NewStateMachine builds a StateMachine over service.
func NewStateMachine(service *Service, logger *slog.Logger, batchSize int, pollInterval time.Duration) *StateMachine {
	return &StateMachine{service: service, logger: logger, batchSize: batchSize, pollInterval: pollInterval}
}

// Run ticks until ctx is cancelled.
func (m *StateMachine) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *StateMachine) tick(ctx context.Context) {
	err := m.service.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)
		instances, err := q.ClaimTransientInstances(ctx, m.batchSize)
		if err != nil {
			return err
		}
		for _, inst := range instances {
			if err := m.advance(ctx, q, inst); err != nil {
				m.logger.Error("state machine: advancing instance", "instance_id", inst.ID, "status", inst.Status, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		m.logger.Error("state machine: tick failed", "error", err)
	}
}

// advance moves one instance a single step closer to its next stable
// status. Stable statuses (Running, Stopped) are reached only once the
// hypervisor confirms them; it never jumps ahead on an assumption.
func (m *StateMachine) advance(ctx context.Context, q *store.Queries, inst store.Instance) error {
	hv, err := q.FindHypervisorByID(ctx, inst.HypervisorID)
	if err != nil {
		return err
	}
	client := m.service.hypervisorClient(hv)

	var vmid int64
	if _, err := fmt.Sscanf(inst.DistantID, "%d", &vmid); err != nil {
		return fmt.Errorf("parsing distant id %q: %w", inst.DistantID, err)
	}

	if inst.Status == store.InstanceDeleting {
		return m.advanceDeleting(ctx, q, inst, client, vmid)
	}

	node, err := client.GetVMExecutionNode(ctx, vmid)
	if err != nil {
		return err
	}
	status, err := client.VMStatusRead(ctx, node, vmid)
	if err != nil {
		return err
	}

	switch inst.Status {
	case store.InstanceProvisioning, store.InstanceStaging:
		if status.Status == hypervisor.StatusRunning {
			_, err := q.UpdateInstanceStatus(ctx, inst.ID, store.InstanceRunning)
			return err
		}
		_, err := client.VMStatusStart(ctx, node, vmid)
		return err

	case store.InstanceStopping:
		if status.Status == hypervisor.StatusStopped {
			_, err := q.UpdateInstanceStatus(ctx, inst.ID, store.InstanceStopped)
			return err
		}
		_, err := client.VMStatusStop(ctx, node, vmid)
		return err

	default:
		return nil
	}
}

func (m *StateMachine) advanceDeleting(ctx context.Context, q *store.Queries, inst store.Instance, client *hypervisor.Client, vmid int64) error {
	node, err := client.GetVMExecutionNode(ctx, vmid)
	if err != nil {
		if apperrErr, ok := apperr.As(err); ok && apperrErr.Kind == apperr.KindNotFound {
			return m.finishDelete(ctx, q, inst)
		}
		return err
	}

	task, err := client.VMDelete(ctx, node, vmid)
	if err != nil {
		return err
	}
	result, err := client.WaitForTaskCompletion(ctx, node, task)
	if err != nil {
		return err
	}
	if result.Status != hypervisor.TaskOK {
		return fmt.Errorf("delete task for instance %s failed: %s", inst.ID, result.Detail)
	}
	return m.finishDelete(ctx, q, inst)
}

// finishDelete releases the instance's address back to its VNet's pool,
// deletes its cloud-init snippet, and removes the Instance row. Bastion,
// authz and K8s teardown are queued by the caller of DeleteInstance, same
// as the async operations CreateInstance emits.
func (m *StateMachine) finishDelete(ctx context.Context, q *store.Queries, inst store.Instance) error {
	if alloc, err := q.FindAllocationByAddress(ctx, inst.IPv4); err == nil {
		if err := ipam.Release(ctx, q, alloc.ID); err != nil {
			return err
		}
	} else if !store.IsNotFound(err) {
		return err
	}

	if err := m.service.deleteSnippet(inst.ID); err != nil {
		return err
	}

	return q.DeleteInstance(ctx, inst.ID)
}
