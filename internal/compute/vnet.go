package compute

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/ipam"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// CreateVNetInput is what a caller supplies to carve a broadcast domain out
// of a VPC.
type CreateVNetInput struct {
	VPCID       idgen.ID
	Name        string
	BridgeID    string
	Subnet      string // CIDR
	Gateway     string
	DHCPEnabled bool
	DNSServers  []string
}

// CreateVNet inserts the VNet row and pre-fills its address pool in one
// transaction: the pool and the row it belongs to either both exist or
// neither does.
func (s *Service) CreateVNet(ctx context.Context, principal authz.Principal, in CreateVNetInput) (store.VNet, error) {
	if err := s.authorize(ctx, principal, "CreateVNet", "vpc", in.VPCID.String()); err != nil {
		return store.VNet{}, err
	}

	var vnet store.VNet
	err := s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)

		var err error
		vnet, err = q.CreateVNet(ctx, store.VNet{
			VPCID:       in.VPCID,
			Name:        in.Name,
			BridgeID:    in.BridgeID,
			Subnet:      in.Subnet,
			Gateway:     in.Gateway,
			DHCPEnabled: in.DHCPEnabled,
			DNSServers:  in.DNSServers,
			State:       store.VNetPending,
		})
		if err != nil {
			return err
		}

		if err := ipam.PreFillPool(ctx, q, vnet.ID, in.Subnet, in.Gateway); err != nil {
			return err
		}

		vnet, err = q.UpdateVNetState(ctx, vnet.ID, store.VNetActive)
		return err
	})
	if err != nil {
		return store.VNet{}, err
	}
	return vnet, nil
}

// DeleteVNet removes a VNet, refusing if it still has non-Reserved
// allocations (anything besides the permanent Gateway row still in use).
func (s *Service) DeleteVNet(ctx context.Context, principal authz.Principal, id idgen.ID) error {
	if err := s.authorize(ctx, principal, "DeleteVNet", "vnet", id.String()); err != nil {
		return err
	}

	q := store.New(s.store.Pool)
	inUse, err := q.CountInUseAllocationsByVNet(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperr.VNetHasAddresses()
	}
	return q.DeleteVNet(ctx, id)
}
