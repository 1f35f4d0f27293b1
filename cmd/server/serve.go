// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/tomtom215/tutorhub/docs" // Import generated swagger docs
	"github.com/tomtom215/tutorhub/internal/api"
	"github.com/tomtom215/tutorhub/internal/auth"
	"github.com/tomtom215/tutorhub/internal/authz"
	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/report"
	"github.com/tomtom215/tutorhub/internal/reportqueue"
	"github.com/tomtom215/tutorhub/internal/room"
	"github.com/tomtom215/tutorhub/internal/session"
	"github.com/tomtom215/tutorhub/internal/supervisor"
	"github.com/tomtom215/tutorhub/internal/supervisor/services"
	"github.com/tomtom215/tutorhub/internal/textgen"
	"github.com/tomtom215/tutorhub/internal/tutormetrics"
	ws "github.com/tomtom215/tutorhub/internal/websocket"
)

// idleTimeout is the keep-alive limit of the HTTP server.
const idleTimeout = 60 * time.Second

var errQueueDisabled = errors.New("report queue is disabled")

// unavailableQueue stands in for the report queue when REPORT_QUEUE_ENABLED=false.
type unavailableQueue struct{}

func (unavailableQueue) Enqueue(context.Context, string) (*models.ReportJobHandle, error) {
	return nil, models.NewExternalDependencyError("report queue", errQueueDisabled, false)
}

func (unavailableQueue) Status(context.Context, string) (*models.ReportStatus, error) {
	return nil, models.NewExternalDependencyError("report queue", errQueueDisabled, false)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, report workers and progress hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

//nolint:gocyclo // Sequential setup steps
func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("queue_enabled", cfg.Queue.Enabled).
		Str("room_provider", cfg.Room.Provider).
		Str("textgen_provider", cfg.TextGen.Provider).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Bridges zerolog to slog for sutureslog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// === DOMAIN SERVICES ===

	roomProvider, err := room.NewProvider(&cfg.Room)
	if err != nil {
		return fmt.Errorf("initialize room provider: %w", err)
	}
	recalc := tutormetrics.NewRecalculator(db)
	sessions := session.NewManager(db, room.NewAdapter(roomProvider, cfg.Room.Timeout), recalc)

	hub := ws.NewHub(cfg.Security.CORSOrigins)
	tree.AddMessagingService(hub)

	checks := map[string]api.Pinger{"database": db}
	deps := api.Dependencies{
		Users:        auth.NewRegistrar(db, cfg.Security.AdminSubjects),
		Sessions:     sessions,
		Store:        db,
		Recalculator: recalc,
		Progress:     hub,
		Checks:       checks,
	}

	// === REPORT QUEUE ===

	if cfg.Queue.Enabled {
		rq, cleanup, err := startReportQueue(ctx, cfg, db, tree, hub)
		if err != nil {
			return err
		}
		defer cleanup()
		deps.Reports = report.NewService(db, rq)
		deps.Queue = rq
		checks["nats"] = rq
	} else {
		logging.Warn().Msg("Report queue disabled (REPORT_QUEUE_ENABLED=false); report requests will fail")
		deps.Reports = report.NewService(db, unavailableQueue{})
		checks["nats"] = nil
	}

	// === HTTP ===

	authenticator, err := auth.NewAuthenticator(ctx, &cfg.Security)
	if err != nil {
		return fmt.Errorf("initialize authenticator: %w", err)
	}
	enforcer, err := authz.NewEnforcer(&cfg.Security.Casbin)
	if err != nil {
		return fmt.Errorf("initialize authorization: %w", err)
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	callers := auth.NewCachedUserStore(db, cfg.Security.UserCacheTTL, cfg.Security.UserCacheSize)
	router := api.NewRouter(api.NewHandler(deps), authenticator, callers, enforcer, api.RouterConfig{
		Middleware:     api.ChiMiddlewareConfigFromSecurity(&cfg.Security),
		SwaggerEnabled: cfg.Server.SwaggerEnabled,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		// WriteTimeout stays zero; progress streams are long-lived.
		IdleTimeout: idleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	sessions.Wait()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
	return nil
}

// startReportQueue connects to NATS (starting the embedded server when
// configured), builds the queue and adds its workers and event bridge to
// the tree. cleanup closes the client connections after the tree stops.
func startReportQueue(ctx context.Context, cfg *config.Config, db *database.DB, tree *supervisor.SupervisorTree, hub *ws.Hub) (*reportqueue.Queue, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*reportqueue.Queue, func(), error) {
		cleanup()
		return nil, nil, err
	}

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		opts, err := reportqueue.EmbeddedOptionsFromConfig(&cfg.NATS)
		if err != nil {
			return fail(fmt.Errorf("embedded nats options: %w", err))
		}
		srv, err := reportqueue.NewEmbeddedServer(opts)
		if err != nil {
			return fail(fmt.Errorf("start embedded nats: %w", err))
		}
		tree.AddDataService(services.NewNATSServerService(srv, cfg.Server.ShutdownTimeout))
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Str("store_dir", cfg.NATS.StoreDir).Msg("Embedded NATS server started")
	}

	nc, err := reportqueue.Connect(natsURL, cfg.NATS.ConnectTimeout)
	if err != nil {
		return fail(fmt.Errorf("connect to nats: %w", err))
	}
	closers = append(closers, nc.Close)

	pub, err := reportqueue.NewNATSEventPublisher(natsURL, cfg.NATS.ConnectTimeout)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := pub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event publisher")
		}
	})

	rq, err := reportqueue.New(ctx, nc, db, &cfg.Queue, reportqueue.WithEvents(pub, cfg.NATS.EventsTopic))
	if err != nil {
		return fail(fmt.Errorf("initialize report queue: %w", err))
	}

	provider, err := textgen.NewProvider(ctx, &cfg.TextGen)
	if err != nil {
		return fail(fmt.Errorf("initialize text generation: %w", err))
	}
	generator := report.NewGenerator(db, provider, report.WithSampling(cfg.TextGen.Temperature, cfg.TextGen.MaxTokens))
	tree.AddMessagingService(reportqueue.NewWorker(rq, generator))

	sub, err := reportqueue.NewNATSEventSubscriber(natsURL, cfg.NATS.ConnectTimeout)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := sub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event subscriber")
		}
	})
	tree.AddMessagingService(ws.NewEventBridge(sub, cfg.NATS.EventsTopic, hub))

	logging.Info().
		Str("stream", cfg.Queue.Stream).
		Int("concurrency", cfg.Queue.Concurrency).
		Int("attempts", cfg.Queue.Attempts).
		Str("textgen_provider", provider.Name()).
		Msg("Report queue initialized")
	return rq, cleanup, nil
}
