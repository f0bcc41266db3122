package metricsexporter

import (
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/hypervisor"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

func TestMatchInstanceUsageJoinsByDistantID(t *testing.T) {
	web := idgen.New()
	db := idgen.New()
	instances := []store.Instance{
		{ID: web, DistantID: "100"},
		{ID: db, DistantID: "101"},
	}
	resources := []hypervisor.Resource{
		{VMID: 100, CPU: 0.42, Mem: 1 << 30, Disk: 5 << 30},
		{VMID: 101, CPU: 0.05, Mem: 512 << 20, Disk: 2 << 30},
	}

	got := matchInstanceUsage(instances, resources)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	webUsage, ok := got[web]
	if !ok {
		t.Fatalf("missing usage for web instance")
	}
	if webUsage.cpuPercent != 42 {
		t.Errorf("cpuPercent = %v, want 42", webUsage.cpuPercent)
	}
	if webUsage.memBytes != 1<<30 {
		t.Errorf("memBytes = %v, want %v", webUsage.memBytes, int64(1<<30))
	}
	if webUsage.diskBytes != 5<<30 {
		t.Errorf("diskBytes = %v, want %v", webUsage.diskBytes, int64(5<<30))
	}
}

func TestMatchInstanceUsageIgnoresUnmatchedResources(t *testing.T) {
	resources := []hypervisor.Resource{{VMID: 999, CPU: 0.9, Mem: 1 << 20}}
	got := matchInstanceUsage(nil, resources)
	if len(got) != 0 {
		t.Fatalf("got %d entries, want 0 for an instance set with no matching vmid", len(got))
	}
}

func TestMatchInstanceUsageEmptyInputsProduceEmptyOutput(t *testing.T) {
	got := matchInstanceUsage(nil, nil)
	if len(got) != 0 {
		t.Fatalf("got %d entries, want 0", len(got))
	}
}
