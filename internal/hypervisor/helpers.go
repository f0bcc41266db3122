package hypervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// taskStatusResponse is the body of a node task-status poll.
type taskStatusResponse struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

// WaitForTaskCompletion polls task on node until it leaves the running
// state, then reports whether it finished "OK" or failed. It gives up once
// ctx is done, propagating ctx's error.
func (c *Client) WaitForTaskCompletion(ctx context.Context, node string, task TaskID) (TaskResult, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		var status taskStatusResponse
		if err := c.get(ctx, fmt.Sprintf("/api2/json/nodes/%s/tasks/%s/status", node, task), &status); err != nil {
			return TaskResult{}, err
		}
		if status.Status != "running" {
			if status.ExitStatus == "OK" {
				return TaskResult{Status: TaskOK, Detail: status.ExitStatus}, nil
			}
			return TaskResult{Status: TaskFailed, Detail: status.ExitStatus}, nil
		}

		select {
		case <-ctx.Done():
			return TaskResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetVMExecutionNode looks up which cluster node currently owns vmID by
// scanning the cluster resource list for a matching qemu entry.
func (c *Client) GetVMExecutionNode(ctx context.Context, vmID int64) (string, error) {
	resources, err := c.ClusterResourcesList(ctx, string(ResourceQemu))
	if err != nil {
		return "", err
	}
	for _, r := range resources {
		if r.VMID == vmID {
			return r.Node, nil
		}
	}
	return "", apperr.VMNotFound(fmt.Sprintf("%d", vmID))
}
