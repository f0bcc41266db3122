// Package app wires the control plane's infrastructure connections and
// dispatches into one of its runtime modes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/bastion"
	"github.com/France-Nuage/plateforme-sub000/internal/compute"
	"github.com/France-Nuage/plateforme-sub000/internal/config"
	"github.com/France-Nuage/plateforme-sub000/internal/identity"
	"github.com/France-Nuage/plateforme-sub000/internal/k8s"
	"github.com/France-Nuage/plateforme-sub000/internal/metricsexporter"
	"github.com/France-Nuage/plateforme-sub000/internal/operations"
	"github.com/France-Nuage/plateforme-sub000/internal/operations/executors"
	"github.com/France-Nuage/plateforme-sub000/internal/platform"
	"github.com/France-Nuage/plateforme-sub000/internal/rpc"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	"github.com/France-Nuage/plateforme-sub000/internal/telemetry"
	"github.com/France-Nuage/plateforme-sub000/internal/vpn"
)

// Run connects to infrastructure using cfg and starts the mode named
// by cfg.Mode: "api" serves the gRPC control plane, "worker" runs the
// operation dispatcher pool and the metrics poller, "statemachine" advances
// instance lifecycles, and "migrate" applies schema migrations and exits.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting controlplane", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	if cfg.Mode == "migrate" {
		if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	}

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	st := store.NewStore(pool)

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	checker, err := authz.Connect(cfg.AuthzURL, cfg.AuthzPresharedKey, false)
	if err != nil {
		return fmt.Errorf("connecting to authorization server: %w", err)
	}

	if err := ensureRootServiceAccount(ctx, st, cfg.RootServiceAccountKey, logger); err != nil {
		return fmt.Errorf("bootstrapping root service account: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, st, checker)
	case "worker":
		return runWorker(ctx, cfg, logger, st, checker)
	case "statemachine":
		return runStateMachine(ctx, cfg, logger, st, checker)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// ensureRootServiceAccount guarantees a ServiceAccount exists for the
// preshared bootstrap key, so a freshly migrated deployment has at least one
// credential able to call the gRPC API before any human user is registered.
// A blank key disables bootstrap entirely — useful for tests and for
// deployments that provision service accounts some other way.
func ensureRootServiceAccount(ctx context.Context, st *store.Store, key string, logger *slog.Logger) error {
	if key == "" {
		logger.Info("root service account bootstrap skipped (ROOT_SERVICE_ACCOUNT_KEY not set)")
		return nil
	}

	q := store.New(st.Pool)
	if _, err := q.FindServiceAccountByKey(ctx, key); err == nil {
		return nil
	} else if !store.IsNotFound(err) {
		return fmt.Errorf("looking up root service account: %w", err)
	}

	if _, err := q.CreateServiceAccount(ctx, store.ServiceAccount{Name: "root", Key: key}); err != nil {
		return fmt.Errorf("creating root service account: %w", err)
	}
	logger.Info("root service account created")
	return nil
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, st *store.Store, checker authz.Checker) error {
	computeService := compute.NewService(st, checker, cfg.SnippetsStorage)

	auth, err := identity.NewAuthenticator(ctx, cfg.OIDCDiscoveryURL, st)
	if err != nil {
		return fmt.Errorf("initializing authenticator: %w", err)
	}

	srv := rpc.NewServer(computeService, auth, logger)

	lis, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr(), err)
	}

	// The grpc-web/CORS edge: browser clients can't speak gRPC-over-HTTP/2
	// directly, so a grpc-web-aware proxy terminates here and forwards to
	// the native gRPC listener above. This process owns only the CORS
	// preflight and liveness surface of that edge.
	corsPolicy := rpc.CORSPolicy{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: cfg.CORSAllowedMethods,
		AllowedHeaders: cfg.CORSAllowedHeaders,
	}
	httpSrv := &http.Server{
		Addr:    cfg.HTTPListenAddr(),
		Handler: corsPolicy.Handler(http.HandlerFunc(handleHealthz)),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.ListenAddr())
		if err := srv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		logger.Info("grpc-web/CORS edge listening", "addr", cfg.HTTPListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http edge: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api servers")
		srv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, st *store.Store, checker authz.Checker) error {
	vpnClient := vpn.NewClient(cfg.VPNAPIURL, cfg.VPNAPIKey)
	bastionClient := bastion.NewClient(cfg.BastionAPIURL, cfg.BastionAPIKey)
	k8sClient, err := k8s.NewClient(cfg.K8sKubeconfigPath)
	if err != nil {
		return fmt.Errorf("connecting to kubernetes: %w", err)
	}

	dispatcher := operations.NewDispatcher(
		executors.NewAuthzWriteExecutor(checker),
		executors.NewAuthzDeleteExecutor(checker),
		executors.NewVpnInviteExecutor(vpnClient),
		executors.NewVpnUpdateExecutor(vpnClient),
		executors.NewVpnRemoveExecutor(vpnClient),
		executors.NewBastionCreateAgentExecutor(bastionClient),
		executors.NewBastionDeleteAgentExecutor(bastionClient),
		executors.NewBastionCreateConnectionExecutor(bastionClient),
		executors.NewBastionDeleteConnectionExecutor(bastionClient),
		executors.NewK8sGrantExecutor(k8sClient),
		executors.NewK8sRevokeExecutor(k8sClient),
	)

	opPool := operations.NewPool(st, dispatcher, logger,
		cfg.OperationsWorkerCount,
		time.Duration(cfg.OperationsPollIntervalMS)*time.Millisecond,
		cfg.OperationsStaleAfter,
	)

	exporter := metricsexporter.New(st, logger, cfg.MetricsPollInterval)

	errCh := make(chan error, 2)
	go func() { errCh <- opPool.Run(ctx) }()
	go func() { errCh <- exporter.Run(ctx) }()

	select {
	case <-ctx.Done():
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func runStateMachine(ctx context.Context, cfg *config.Config, logger *slog.Logger, st *store.Store, checker authz.Checker) error {
	computeService := compute.NewService(st, checker, cfg.SnippetsStorage)
	sm := compute.NewStateMachine(computeService, logger, cfg.InstanceWorkerCount, cfg.InstancePollInterval)
	return sm.Run(ctx)
}
