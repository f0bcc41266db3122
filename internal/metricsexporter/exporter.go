// Package metricsexporter polls every hypervisor's cluster_resources_list
// for per-guest CPU/memory usage and republishes it, both onto the
// instance row (store.UpdateInstanceUsage) and onto the Prometheus
// gauges telemetry.InstanceCPUUsagePercent/InstanceMemoryUsageBytes, which
// no runtime mode registers or serves.
//
// This is ambient observability, not core reconciliation: a failed poll is
// logged and retried on the next tick rather than routed through the
// operations worker pool's retry/backoff machinery, the way
// original_source/apps/metric_exporter polled Proxmox directly on a plain
// ticker with no backoff of its own.
package metricsexporter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/France-Nuage/plateforme-sub000/internal/hypervisor"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	"github.com/France-Nuage/plateforme-sub000/internal/telemetry"
)

// Exporter periodically scrapes every hypervisor for guest resource usage.
type Exporter struct {
	store        *store.Store
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	clients map[idgen.ID]*hypervisor.Client
}

// New builds an Exporter. pollInterval is how often every hypervisor is
// scraped.
func New(st *store.Store, logger *slog.Logger, pollInterval time.Duration) *Exporter {
	return &Exporter{
		store:        st,
		logger:       logger,
		pollInterval: pollInterval,
		clients:      make(map[idgen.ID]*hypervisor.Client),
	}
}

// Run blocks, polling every pollInterval until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.pollOnce(ctx)
		}
	}
}

func (e *Exporter) pollOnce(ctx context.Context) {
	root := store.New(e.store.Pool)
	hypervisors, err := root.ListHypervisors(ctx)
	if err != nil {
		e.logger.Error("listing hypervisors for metrics poll", "error", err)
		return
	}

	for _, hv := range hypervisors {
		if err := e.pollHypervisor(ctx, root, hv); err != nil {
			e.logger.Warn("polling hypervisor metrics", "hypervisor_id", hv.ID, "error", err)
		}
	}
}

func (e *Exporter) pollHypervisor(ctx context.Context, root *store.Queries, hv store.Hypervisor) error {
	instances, err := root.ListInstancesByHypervisor(ctx, hv.ID)
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}
	if len(instances) == 0 {
		return nil
	}

	resources, err := e.client(hv).ClusterResourcesList(ctx, string(hypervisor.ResourceQemu))
	if err != nil {
		return fmt.Errorf("cluster_resources_list: %w", err)
	}

	for inst, u := range matchInstanceUsage(instances, resources) {
		if _, err := root.UpdateInstanceUsage(ctx, inst, u.cpuPercent, u.memBytes, u.diskBytes); err != nil {
			e.logger.Warn("recording instance usage", "instance_id", inst, "error", err)
			continue
		}
		telemetry.InstanceCPUUsagePercent.WithLabelValues(inst.String()).Set(u.cpuPercent)
		telemetry.InstanceMemoryUsageBytes.WithLabelValues(inst.String()).Set(float64(u.memBytes))
	}
	return nil
}

// usage is one resource's CPU/memory reading, converted to the units the
// store and the Prometheus gauges use.
type usage struct {
	cpuPercent float64
	memBytes   int64
	diskBytes  int64
}

// matchInstanceUsage joins cluster_resources_list rows back to the
// instances they belong to by distant (hypervisor-side) vmid — the only
// identifier the two sides share.
func matchInstanceUsage(instances []store.Instance, resources []hypervisor.Resource) map[idgen.ID]usage {
	byDistantID := make(map[string]idgen.ID, len(instances))
	for _, inst := range instances {
		byDistantID[inst.DistantID] = inst.ID
	}

	out := make(map[idgen.ID]usage)
	for _, r := range resources {
		id, ok := byDistantID[strconv.FormatInt(r.VMID, 10)]
		if !ok {
			continue
		}
		out[id] = usage{cpuPercent: r.CPU * 100, memBytes: r.Mem, diskBytes: r.Disk}
	}
	return out
}

func (e *Exporter) client(hv store.Hypervisor) *hypervisor.Client {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.clients[hv.ID]; ok {
		return c
	}
	c := hypervisor.NewClient(hv.URL, hv.AuthToken, hypervisor.VMConfigDefaults{ImageStorage: hv.StorageName})
	e.clients[hv.ID] = c
	return c
}
