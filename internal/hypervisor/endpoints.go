package hypervisor

import (
	"context"
	"fmt"
	"net/http"
)

// ClusterNextID returns the next free numeric VM id in the cluster.
func (c *Client) ClusterNextID(ctx context.Context) (int64, error) {
	var id string
	if err := c.get(ctx, "/api2/json/cluster/nextid", &id); err != nil {
		return 0, err
	}
	var parsed int64
	if _, err := fmt.Sscanf(id, "%d", &parsed); err != nil {
		return 0, fmt.Errorf("parsing next id %q: %w", id, err)
	}
	return parsed, nil
}

// ClusterResourcesList enumerates nodes, storage, and VMs. kind filters the
// listing server-side ("vm", "storage", "node"); pass "" for everything.
func (c *Client) ClusterResourcesList(ctx context.Context, kind string) ([]Resource, error) {
	path := "/api2/json/cluster/resources"
	if kind != "" {
		path += "?type=" + kind
	}
	var resources []Resource
	if err := c.get(ctx, path, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// VMCreate provisions a new guest on node from config, applying the
// client's configured storage defaults for any field config leaves unset.
// It returns the UPID of the creation task.
func (c *Client) VMCreate(ctx context.Context, node string, config VMConfig) (TaskID, error) {
	if config.SCSI0 == "" && c.defaults.ImageStorage != "" {
		config.SCSI0 = c.defaults.ImageStorage + ":32"
	}
	if config.CiCustom == "" && c.defaults.SnippetsStorage != "" {
		config.CiCustom = "user=" + c.defaults.SnippetsStorage + ":snippets/cloud-init.yaml"
	}
	var task string
	err := c.post(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu", node), config, &task)
	return TaskID(task), err
}

// VMClone duplicates vmID into newID on node. full clones disk contents
// rather than linking to the source's.
func (c *Client) VMClone(ctx context.Context, node string, vmID, newID int64, full bool) (TaskID, error) {
	req := struct {
		NewID int64 `json:"newid"`
		Full  int   `json:"full"`
	}{NewID: newID}
	if full {
		req.Full = 1
	}
	var task string
	err := c.post(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/clone", node, vmID), req, &task)
	return TaskID(task), err
}

// VMStatusStart powers vmID on.
func (c *Client) VMStatusStart(ctx context.Context, node string, vmID int64) (TaskID, error) {
	var task string
	err := c.post(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/status/start", node, vmID), nil, &task)
	return TaskID(task), err
}

// VMStatusStop powers vmID off (hard stop, not ACPI shutdown).
func (c *Client) VMStatusStop(ctx context.Context, node string, vmID int64) (TaskID, error) {
	var task string
	err := c.post(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/status/stop", node, vmID), nil, &task)
	return TaskID(task), err
}

// VMStatusRead returns vmID's current lifecycle status.
func (c *Client) VMStatusRead(ctx context.Context, node string, vmID int64) (*VMStatusResponse, error) {
	var status VMStatusResponse
	err := c.get(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/status/current", node, vmID), &status)
	return &status, err
}

// VMDelete destroys vmID on node and returns the removal task.
func (c *Client) VMDelete(ctx context.Context, node string, vmID int64) (TaskID, error) {
	task, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d", node, vmID), nil)
	if err != nil {
		return "", err
	}
	var taskStr string
	if err := decodeInto(task, &taskStr); err != nil {
		return "", err
	}
	return TaskID(taskStr), nil
}

// vmConfigRead is the raw shape vm_config_read returns; its ipconfig0
// field needs the Proxmox-specific comma-string parse in parseIPConfig0.
type vmConfigRead struct {
	Cores     int    `json:"cores"`
	Memory    int64  `json:"memory"`
	Name      string `json:"name"`
	Net0      string `json:"net0"`
	IPConfig0 string `json:"ipconfig0"`
}

// VMConfigRead fetches vmID's current configuration on node.
func (c *Client) VMConfigRead(ctx context.Context, node string, vmID int64) (*VMConfig, string, string, error) {
	var raw vmConfigRead
	if err := c.get(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/config", node, vmID), &raw); err != nil {
		return nil, "", "", err
	}
	config := &VMConfig{Cores: raw.Cores, Memory: raw.Memory, Name: raw.Name, Net0: raw.Net0, VMID: vmID}
	if raw.IPConfig0 == "" {
		return config, "", "", nil
	}
	addr, gateway, err := parseIPConfig0(raw.IPConfig0)
	if err != nil {
		return config, "", "", err
	}
	return config, addr, gateway, nil
}

// VMDiskResize resizes vmID's disk identified by diskName (e.g. "scsi0").
// sizeIncrement is passed to the API unchanged: either an absolute size
// (e.g. "32G", as CreateInstance passes) or a "+"-prefixed increment
// (e.g. "+10G").
func (c *Client) VMDiskResize(ctx context.Context, node string, vmID int64, diskName, sizeIncrement string) error {
	req := struct {
		Disk string `json:"disk"`
		Size string `json:"size"`
	}{Disk: diskName, Size: sizeIncrement}
	return c.put(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/resize", node, vmID), req, nil)
}

// VMNetworkInterfaces queries the QEMU guest agent running inside vmID for
// its reported network interfaces and addresses.
func (c *Client) VMNetworkInterfaces(ctx context.Context, node string, vmID int64) (*NetworkInterfaces, error) {
	var result NetworkInterfaces
	err := c.get(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/agent/network-get-interfaces", node, vmID), &result)
	return &result, err
}
