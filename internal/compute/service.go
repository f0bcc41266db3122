// Package compute implements the control-flow invariants of the network
// and compute resource lifecycle: VPC/VNet/security-group provisioning,
// instance creation against the hypervisor adapter, and the state machine
// worker that advances instances through their transient statuses.
package compute

import (
	"context"
	"sync"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/hypervisor"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// Service bundles everything a compute/network operation needs: the store,
// the authorization checker, the snippets directory, and a
// lazily-built, id-keyed cache of hypervisor clients (one per Hypervisor
// row, since each carries its own URL and token).
type Service struct {
	store       *store.Store
	authz       authz.Checker
	snippetsDir string

	mu      sync.Mutex
	clients map[idgen.ID]*hypervisor.Client
}

// NewService builds a Service. snippetsDir is where cloud-init snippets are
// materialised before VMCreate references them.
func NewService(st *store.Store, checker authz.Checker, snippetsDir string) *Service {
	return &Service{
		store:       st,
		authz:       checker,
		snippetsDir: snippetsDir,
		clients:     make(map[idgen.ID]*hypervisor.Client),
	}
}

// hypervisorClient returns the cached *hypervisor.Client for h, building one
// on first use. Hypervisor rows don't change their URL/token in place in
// this system, so the cache never needs invalidation.
func (s *Service) hypervisorClient(h store.Hypervisor) *hypervisor.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[h.ID]; ok {
		return c
	}
	c := hypervisor.NewClient(h.URL, h.AuthToken, hypervisor.VMConfigDefaults{
		ImageStorage: h.StorageName,
	})
	s.clients[h.ID] = c
	return c
}

// authorize checks principal can perform permission on resourceType/
// resourceID, translating a clean "no" into apperr.Forbidden so callers
// don't have to.
func (s *Service) authorize(ctx context.Context, principal authz.Principal, permission, resourceType, resourceID string) error {
	allowed, err := authz.NewCheck(s.authz).For(principal).Can(permission).On(resourceType, resourceID).Dispatch(ctx)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden(permission, resourceType)
	}
	return nil
}
