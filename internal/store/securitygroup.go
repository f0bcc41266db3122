package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateSecurityGroup(ctx context.Context, in SecurityGroup) (SecurityGroup, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO security_groups (id, vpc_id, name, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, vpc_id, name, is_default, created_at, updated_at`,
		in.ID, in.VPCID, in.Name, in.IsDefault)
	return scanSecurityGroup(row)
}

func (q *Queries) FindSecurityGroupByID(ctx context.Context, id idgen.ID) (SecurityGroup, error) {
	row := q.db.QueryRow(ctx, securityGroupSelect+` WHERE id = $1`, id)
	return scanSecurityGroup(row)
}

func (q *Queries) ListSecurityGroupsByVPC(ctx context.Context, vpcID idgen.ID) ([]SecurityGroup, error) {
	rows, err := q.db.Query(ctx, securityGroupSelect+` WHERE vpc_id = $1 ORDER BY created_at ASC`, vpcID)
	if err != nil {
		return nil, fmt.Errorf("listing security groups: %w", classify(err))
	}
	defer rows.Close()

	var out []SecurityGroup
	for rows.Next() {
		g, err := scanSecurityGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteSecurityGroup(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM security_groups WHERE id = $1 AND is_default = false`, id)
	if err != nil {
		return fmt.Errorf("deleting security group %s: %w", id, classify(err))
	}
	return nil
}

const securityGroupSelect = `SELECT id, vpc_id, name, is_default, created_at, updated_at FROM security_groups`

func scanSecurityGroup(row rowScanner) (SecurityGroup, error) {
	var g SecurityGroup
	if err := row.Scan(&g.ID, &g.VPCID, &g.Name, &g.IsDefault, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return SecurityGroup{}, fmt.Errorf("scanning security group: %w", classify(err))
	}
	return g, nil
}

// CreateDefaultSecurityGroup builds the security group every new VPC gets:
// a group named "default" carrying the two deny-all rules (one per
// direction) that close the implicit-allow gap until an operator opens
// specific ports. Call this within the same transaction as CreateVPC so a
// VPC never briefly exists without a security posture.
func (q *Queries) CreateDefaultSecurityGroup(ctx context.Context, vpcID idgen.ID) (SecurityGroup, error) {
	group, err := q.CreateSecurityGroup(ctx, SecurityGroup{VPCID: vpcID, Name: "default", IsDefault: true})
	if err != nil {
		return SecurityGroup{}, err
	}

	for _, dir := range []SecurityRuleDirection{DirectionInbound, DirectionOutbound} {
		_, err := q.CreateSecurityRule(ctx, SecurityRule{
			SecurityGroupID: group.ID,
			Direction:       dir,
			Protocol:        ProtocolAll,
			SourceCIDR:      "0.0.0.0/0",
			Action:          ActionDeny,
			Priority:        DenyAllPriority,
		})
		if err != nil {
			return SecurityGroup{}, fmt.Errorf("creating deny-all rule: %w", err)
		}
	}
	return group, nil
}

func (q *Queries) CreateSecurityRule(ctx context.Context, in SecurityRule) (SecurityRule, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO security_rules (id, security_group_id, direction, protocol, port_from, port_to, source_cidr, action, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+securityRuleColumns,
		in.ID, in.SecurityGroupID, in.Direction, in.Protocol, in.PortFrom, in.PortTo, in.SourceCIDR, in.Action, in.Priority)
	return scanSecurityRule(row)
}

func (q *Queries) FindSecurityRuleByID(ctx context.Context, id idgen.ID) (SecurityRule, error) {
	row := q.db.QueryRow(ctx, `SELECT `+securityRuleColumns+` FROM security_rules WHERE id = $1`, id)
	return scanSecurityRule(row)
}

// ListSecurityRulesByGroup orders rules by priority ascending, the order the
// firewall translation layer walks them in (lower value wins first match).
func (q *Queries) ListSecurityRulesByGroup(ctx context.Context, groupID idgen.ID) ([]SecurityRule, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+securityRuleColumns+` FROM security_rules
		WHERE security_group_id = $1 ORDER BY priority ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing security rules: %w", classify(err))
	}
	defer rows.Close()

	var out []SecurityRule
	for rows.Next() {
		r, err := scanSecurityRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteSecurityRule(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM security_rules
		WHERE id = $1 AND priority != $2`, id, DenyAllPriority)
	if err != nil {
		return fmt.Errorf("deleting security rule %s: %w", id, classify(err))
	}
	return nil
}

const securityRuleColumns = `id, security_group_id, direction, protocol, port_from, port_to, source_cidr, action, priority, created_at, updated_at`

func scanSecurityRule(row rowScanner) (SecurityRule, error) {
	var r SecurityRule
	err := row.Scan(&r.ID, &r.SecurityGroupID, &r.Direction, &r.Protocol, &r.PortFrom, &r.PortTo, &r.SourceCIDR, &r.Action, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return SecurityRule{}, fmt.Errorf("scanning security rule: %w", classify(err))
	}
	return r, nil
}
