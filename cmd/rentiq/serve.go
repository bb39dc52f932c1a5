package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/adapter/auth"
	"github.com/neomorfeo/rentiq/internal/adapter/contract"
	"github.com/neomorfeo/rentiq/internal/adapter/fsm"
	"github.com/neomorfeo/rentiq/internal/adapter/otel"
	"github.com/neomorfeo/rentiq/internal/adapter/push"
	"github.com/neomorfeo/rentiq/internal/adapter/river"
	"github.com/neomorfeo/rentiq/internal/adapter/sqlite"
	"github.com/neomorfeo/rentiq/internal/app"
	"github.com/neomorfeo/rentiq/internal/config"
	"github.com/neomorfeo/rentiq/internal/domain"
	"github.com/neomorfeo/rentiq/internal/logging"

	handler "github.com/neomorfeo/rentiq/internal/adapter/http"
)

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the lease API and run the activation job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), c.cfg)
		},
	}
}

// run wires the full stack and blocks until ctx is cancelled or the process
// receives SIGINT/SIGTERM, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger(logging.Config{Component: "rentiq", Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// --- Observability ---
	providers, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	// --- Adapters (out) ---
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pusher, closePusher, err := newPusher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePusher()

	validator := fsm.New()
	leaseRepo := otel.NewTracingLeaseRepository(store)
	clock := app.WithLocation(cfg.Location())

	// --- Application ---
	notifications := app.NewNotificationService(store, store, pusher, logger.Named("notifications"))
	activator := app.NewActivator(leaseRepo, validator, logger.Named("activation"), clock)

	schedule, err := river.ParseSchedule(cfg.ActivationSchedule, cfg.Location())
	if err != nil {
		return err
	}
	jobs, err := river.Setup(ctx, store.DB(), river.Deps{
		Deliverer: notifications,
		Activator: activator,
		Schedule:  schedule,
		Logger:    logger.Named("river"),
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := jobs.Stop(stopCtx); err != nil {
			logger.Warn("river shutdown", zap.Error(err))
		}
	}()

	notifier := otel.NewTracingNotifier(river.NewPublisher(jobs))
	renderer := otel.NewTracingRenderer(contract.NewRenderer(nil))
	leases := app.NewLeaseService(leaseRepo, store, notifier, validator, renderer, logger.Named("leases"), clock)

	// --- Adapters (in) ---
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, logger, leases, notifications),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("rentiq listening",
			zap.String("addr", srv.Addr),
			zap.String("docs", "http://localhost"+srv.Addr+"/docs"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

func newRouter(cfg config.Config, logger *zap.Logger, leases *app.LeaseService, notifications *app.NotificationService) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, handler.Config("rentiq", version))
	api.UseMiddleware(handler.Authenticate(api, auth.NewVerifier([]byte(cfg.JWTSecret))))
	handler.Register(api, leases, notifications)

	co := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return co.Handler(router)
}

// openStore opens the instrumented database and runs the lease migrations.
func openStore(cfg config.Config) (*sqlite.Store, error) {
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: %w", err)
	}
	return store, nil
}

// newPusher publishes to Redis when REDIS_ADDR is set and logs otherwise.
func newPusher(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.NotificationPusher, func(), error) {
	if cfg.RedisAddr == "" {
		return push.NewLogPusher(logger.Named("push")), func() {}, nil
	}

	client, err := push.NewRedisClient(ctx, cfg.RedisAddr, "", 0)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return push.NewRedisPusher(client), func() { _ = client.Close() }, nil
}
