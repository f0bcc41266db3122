package compute

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// CreateVPCInput is what a caller supplies to provision a new VPC.
type CreateVPCInput struct {
	OrganizationID idgen.ID
	Name           string
	Slug           string
	Region         string
	MTU            int32
}

// CreateVPC provisions an isolated virtual network: it allocates a vxlan
// tag, inserts the VPC row, queues the organization->vpc Parent
// relationship, and creates the default deny-all security group — all in
// one transaction, so a failure at any step after the slug check leaves no
// partial VPC behind. Proxmox SDN wiring is deferred to a later phase; the
// VPC goes straight from Creating to Active once its database-side
// invariants are satisfied.
func (s *Service) CreateVPC(ctx context.Context, principal authz.Principal, in CreateVPCInput) (store.VPC, error) {
	if err := s.authorize(ctx, principal, "CreateVPC", "organization", in.OrganizationID.String()); err != nil {
		return store.VPC{}, err
	}

	root := store.New(s.store.Pool)
	if _, err := root.FindVPCBySlug(ctx, in.Slug); err == nil {
		return store.VPC{}, apperr.SlugAlreadyExists(in.Slug)
	} else if !store.IsNotFound(err) {
		return store.VPC{}, err
	}

	var vpc store.VPC
	err := s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)

		tag, err := q.NextVXLANTag(ctx)
		if err != nil {
			return err
		}

		vpc, err = q.CreateVPC(ctx, store.VPC{
			Name:           in.Name,
			Slug:           in.Slug,
			OrganizationID: in.OrganizationID,
			Region:         in.Region,
			VXLANTag:       tag,
			State:          store.VPCCreating,
			MTU:            in.MTU,
		})
		if err != nil {
			return err
		}

		if _, err := operations.Enqueue(ctx, tx, operations.OpAuthzWriteRel, "vpc", vpc.ID, authzTupleInput{
			ObjectType:  "vpc",
			ObjectID:    vpc.ID.String(),
			Relation:    "Parent",
			SubjectType: "organization",
			SubjectID:   in.OrganizationID.String(),
		}, nil); err != nil {
			return fmt.Errorf("queuing parent relationship: %w", err)
		}

		if _, err := q.CreateDefaultSecurityGroup(ctx, vpc.ID); err != nil {
			return err
		}

		vpc, err = q.UpdateVPCState(ctx, vpc.ID, store.VPCActive)
		return err
	})
	if err != nil {
		return store.VPC{}, err
	}
	return vpc, nil
}

// DeleteVPC removes a VPC, refusing if it still has VNets attached.
func (s *Service) DeleteVPC(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "DeleteVPC", "vpc", id.String()); err != nil {
		return err
	}

	q := store.New(s.store.Pool)
	count, err := q.CountVNetsByVPC(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.VPCHasVNets()
	}
	return q.DeleteVPC(ctx, id)
}
