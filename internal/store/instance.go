package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// CreateInstance inserts in. Callers that already allocated an id (the
// compute service needs one before it writes the instance's cloud-init
// snippet, ahead of the insert) may set in.ID; a nil id is filled in here.
func (q *Queries) CreateInstance(ctx context.Context, in Instance) (Instance, error) {
	if in.ID.IsNil() {
		in.ID = idgen.New()
	}
	if in.Status == "" {
		in.Status = InstanceProvisioning
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO instances (
			id, hypervisor_id, project_id, distant_id, ipv4, name, status,
			max_cpu_cores, cpu_usage_percent, max_memory_bytes, memory_usage_bytes,
			max_disk_bytes, disk_usage_bytes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+instanceColumns,
		in.ID, in.HypervisorID, in.ProjectID, in.DistantID, in.IPv4, in.Name, in.Status,
		in.MaxCPUCores, in.CPUUsagePercent, in.MaxMemoryBytes, in.MemoryUsageBytes,
		in.MaxDiskBytes, in.DiskUsageBytes)
	return scanInstance(row)
}

func (q *Queries) FindInstanceByID(ctx context.Context, id idgen.ID) (Instance, error) {
	row := q.db.QueryRow(ctx, `SELECT `+instanceColumns+` FROM instances WHERE id = $1`, id)
	return scanInstance(row)
}

func (q *Queries) ListInstancesByProject(ctx context.Context, projectID idgen.ID) ([]Instance, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+instanceColumns+` FROM instances
		WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", classify(err))
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ListInstancesByHypervisor returns every Running instance placed on
// hypervisorID, the set the metrics poller resolves against a single
// cluster_resources_list call.
func (q *Queries) ListInstancesByHypervisor(ctx context.Context, hypervisorID idgen.ID) ([]Instance, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+instanceColumns+` FROM instances
		WHERE hypervisor_id = $1 AND status = $2 ORDER BY created_at ASC`, hypervisorID, InstanceRunning)
	if err != nil {
		return nil, fmt.Errorf("listing instances for hypervisor %s: %w", hypervisorID, classify(err))
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateInstanceStatus(ctx context.Context, id idgen.ID, status InstanceStatus) (Instance, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE instances SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+instanceColumns, id, status)
	return scanInstance(row)
}

func (q *Queries) UpdateInstanceUsage(ctx context.Context, id idgen.ID, cpuPercent float64, memoryBytes, diskBytes int64) (Instance, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE instances
		SET cpu_usage_percent = $2, memory_usage_bytes = $3, disk_usage_bytes = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+instanceColumns, id, cpuPercent, memoryBytes, diskBytes)
	return scanInstance(row)
}

func (q *Queries) DeleteInstance(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM instances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting instance %s: %w", id, classify(err))
	}
	return nil
}

// ClaimTransientInstances locks up to limit rows currently sitting in one of
// the transient statuses (Provisioning, Staging, Stopping, Deleting) so the
// state machine worker can poll the hypervisor for each without two workers
// racing on the same instance. The lock is released at the end of the
// caller's transaction.
func (q *Queries) ClaimTransientInstances(ctx context.Context, limit int) ([]Instance, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+instanceColumns+` FROM instances
		WHERE status IN ('Provisioning', 'Staging', 'Stopping', 'Deleting')
		ORDER BY updated_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claiming transient instances: %w", classify(err))
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

const instanceColumns = `
	id, hypervisor_id, project_id, distant_id, ipv4, name, status,
	max_cpu_cores, cpu_usage_percent, max_memory_bytes, memory_usage_bytes,
	max_disk_bytes, disk_usage_bytes, created_at, updated_at`

func scanInstance(row rowScanner) (Instance, error) {
	var inst Instance
	err := row.Scan(
		&inst.ID, &inst.HypervisorID, &inst.ProjectID, &inst.DistantID, &inst.IPv4, &inst.Name, &inst.Status,
		&inst.MaxCPUCores, &inst.CPUUsagePercent, &inst.MaxMemoryBytes, &inst.MemoryUsageBytes,
		&inst.MaxDiskBytes, &inst.DiskUsageBytes, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return Instance{}, fmt.Errorf("scanning instance: %w", classify(err))
	}
	return inst, nil
}
