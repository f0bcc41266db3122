package compute

import (
	"context"

	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// CreateSecurityGroup adds a non-default security group to a VPC.
func (s *Service) CreateSecurityGroup(ctx context.Context, principal authz.Principal, vpcID idgen.ID, name string) (store.SecurityGroup, error) {
	if err := s.authorize(ctx, principal, "CreateSecurityGroup", "vpc", vpcID.String()); err != nil {
		return store.SecurityGroup{}, err
	}
	q := store.New(s.store.Pool)
	return q.CreateSecurityGroup(ctx, store.SecurityGroup{VPCID: vpcID, Name: name})
}

// DeleteSecurityGroup removes a non-default security group. The default
// group is protected at the store layer (DeleteSecurityGroup's WHERE
// is_default = false), so this call is a no-op against it rather than an
// error — callers that need to know should check IsDefault first.
func (s *Service) DeleteSecurityGroup(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "DeleteSecurityGroup", "security_group", id.String()); err != nil {
		return err
	}
	q := store.New(s.store.Pool)
	return q.DeleteSecurityGroup(ctx, id)
}

// AddSecurityRule appends a rule to a security group.
func (s *Service) AddSecurityRule(ctx context.Context, principal authz.Principal, groupID idgen.ID, rule store.SecurityRule) (store.SecurityRule, error) {
	if err := s.authorize(ctx, principal, "UpdateSecurityGroup", "security_group", groupID.String()); err != nil {
		return store.SecurityRule{}, err
	}
	rule.SecurityGroupID = groupID
	q := store.New(s.store.Pool)
	return q.CreateSecurityRule(ctx, rule)
}

// RemoveSecurityRule deletes a rule. The permanent deny-all rules are
// protected at the store layer (DeleteSecurityRule's priority != DenyAll
// guard).
func (s *Service) RemoveSecurityRule(ctx context.Context, principal authz.Principal, groupID, ruleID idgen.ID) error {
	if err := s.authorize(ctx, principal, "UpdateSecurityGroup", "security_group", groupID.String()); err != nil {
		return err
	}
	q := store.New(s.store.Pool)
	return q.DeleteSecurityRule(ctx, ruleID)
}
