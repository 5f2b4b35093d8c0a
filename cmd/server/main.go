package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"hrcore/internal/admin"
	adminhandler "hrcore/internal/admin/handler"
	"hrcore/internal/audit"
	auditmetrics "hrcore/internal/audit/metrics"
	auditmemory "hrcore/internal/audit/store/memory"
	auditpostgres "hrcore/internal/audit/store/postgres"
	auditredis "hrcore/internal/audit/store/redis"
	"hrcore/internal/authz"
	hierarchyservice "hrcore/internal/hierarchy/service"
	hierarchymemory "hrcore/internal/hierarchy/store/memory"
	hierarchypostgres "hrcore/internal/hierarchy/store/postgres"
	jwttoken "hrcore/internal/jwt_token"
	leaveservice "hrcore/internal/leave/service"
	leavememory "hrcore/internal/leave/store/memory"
	leavepostgres "hrcore/internal/leave/store/postgres"
	"hrcore/internal/platform/config"
	"hrcore/internal/platform/httpserver"
	"hrcore/internal/platform/logger"
	"hrcore/internal/platform/metrics"
	"hrcore/internal/platform/postgres"
	redisclient "hrcore/internal/platform/redis"
	"hrcore/pkg/platform/httputil"
	"hrcore/pkg/platform/middleware/metadata"
	"hrcore/pkg/platform/middleware/ratelimit"
	txcontext "hrcore/pkg/platform/tx"
)

const (
	jwtIssuer   = "hrcore"
	jwtAudience = "hrcore-admin"
)

// infra holds the backing stores chosen by AUDIT_BACKEND.
type infra struct {
	auditStore audit.Store
	employees  hierarchyservice.EmployeeStore
	requests   leaveservice.RequestStore
	directory  leaveservice.EmployeeDirectory
	tx         txcontext.Runner
	health     func(ctx context.Context) error
	close      func() error
}

// services is the shared layer the domain controllers call into.
type services struct {
	engine    *authz.Engine
	trail     *audit.Trail
	hierarchy *hierarchyservice.Guard
	leave     *leaveservice.Workflow
	admin     *admin.Service
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	inf, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := inf.close(); err != nil {
			log.Warn("closing backing stores", "error", err)
		}
	}()

	svc, err := buildServices(cfg, log, reg, inf)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtAudience)
	limiter := ratelimit.New(cfg.AdminRateLimit, int(cfg.AdminRateLimit*2), log)
	adminHandler := adminhandler.New(svc.admin, log, jwttoken.NewJWTServiceAdapter(jwtService), limiter.Middleware)

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := inf.health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	adminHandler.Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting hrcore", "addr", cfg.Addr, "audit_backend", cfg.AuditBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	switch cfg.AuditBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		employees := hierarchypostgres.New(db)
		return &infra{
			auditStore: auditpostgres.New(db),
			employees:  employees,
			requests:   leavepostgres.New(db),
			directory:  employees,
			tx:         postgres.NewTxRunner(db),
			health:     db.PingContext,
			close:      db.Close,
		}, nil

	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Warn("redis audit backend selected; hierarchy and leave state are held in memory")
		return memoryInfra(auditredis.New(client.Client), client.Health, client.Close), nil

	default:
		return memoryInfra(auditmemory.NewInMemoryStore(), nil, nil), nil
	}
}

func memoryInfra(store audit.Store, health func(context.Context) error, closeFn func() error) *infra {
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	employees := hierarchymemory.NewInMemory()
	return &infra{
		auditStore: store,
		employees:  employees,
		requests:   leavememory.NewInMemory(),
		directory:  employees,
		tx:         txcontext.NewInMemory(),
		health:     health,
		close:      closeFn,
	}
}

func buildServices(cfg config.Server, log *slog.Logger, reg prometheus.Registerer, inf *infra) (*services, error) {
	registry := authz.DefaultRegistry()
	if cfg.PermissionsFile != "" {
		loaded, err := authz.LoadRegistryFile(cfg.PermissionsFile)
		if err != nil {
			return nil, fmt.Errorf("load permissions: %w", err)
		}
		registry = loaded
	}
	engine := authz.NewEngine(registry)
	log.Info("permission registry loaded", "rules", len(registry.Rules()), "file", cfg.PermissionsFile)

	trail := audit.New(inf.auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(auditmetrics.New(reg)),
		audit.WithLimits(cfg.AuditDefaultLimit, cfg.AuditMaxLimit),
	)
	guardMetrics := metrics.New(reg)

	guard, err := hierarchyservice.New(inf.employees, engine, trail,
		hierarchyservice.WithLogger(log),
		hierarchyservice.WithMetrics(guardMetrics),
		hierarchyservice.WithTx(inf.tx),
		hierarchyservice.WithMaxDepth(cfg.HierarchyMaxDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("hierarchy guard: %w", err)
	}

	workflow, err := leaveservice.New(inf.requests, inf.directory, engine, trail,
		leaveservice.WithLogger(log),
		leaveservice.WithMetrics(guardMetrics),
		leaveservice.WithTx(inf.tx),
	)
	if err != nil {
		return nil, fmt.Errorf("leave workflow: %w", err)
	}

	adminService, err := admin.New(engine, trail,
		admin.WithLogger(log),
		admin.WithMetrics(guardMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", err)
	}

	return &services{
		engine:    engine,
		trail:     trail,
		hierarchy: guard,
		leave:     workflow,
		admin:     adminService,
	}, nil
}
