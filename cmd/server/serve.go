package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clinic-queue-dashboard/internal/config"
	"clinic-queue-dashboard/internal/database"
	"clinic-queue-dashboard/internal/handler"
	"clinic-queue-dashboard/internal/lock"
	"clinic-queue-dashboard/internal/logger"
	"clinic-queue-dashboard/internal/middleware"
	"clinic-queue-dashboard/internal/repository"
	"clinic-queue-dashboard/internal/service"
	"clinic-queue-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the queue API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func runServer(parent context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// 2. Initialize database connection
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	// 3. Pick the writer lock
	locker, closeLock, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLock()

	// 4. Initialize the queue and load the first snapshot
	policy, err := service.ParseStationPolicy(cfg.Queue.StationPolicy)
	if err != nil {
		return err
	}
	location, err := cfg.Queue.Location()
	if err != nil {
		return err
	}
	auditRepo := repository.NewAuditRepo(db)
	queue := service.NewQueueService(repository.NewStore(db), service.Options{
		TotalStations:         cfg.Queue.TotalStations,
		StationPolicy:         policy,
		RecentCallsLimit:      cfg.Queue.RecentCallsLimit,
		RecentCallsFetchLimit: cfg.Queue.RecentCallsFetchLimit,
		CalledBy:              cfg.Queue.CalledBy,
		WriteTimeout:          cfg.Queue.WriteTimeout,
		Locker:                locker,
		Audit:                 auditRepo,
		Logger:                log.Named("queue"),
		Location:              location,
	})
	if err := queue.Load(ctx); err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	log.Info("queue loaded",
		zap.Int("departments", len(queue.Departments())),
		zap.Int("patients", queue.Stats().Total),
		zap.String("station_policy", string(policy)),
		zap.String("timezone", location.String()),
	)

	// 5. Start background refresh worker
	worker := service.NewRefreshWorker(queue, cfg.Queue.RefreshInterval, log.Named("refresh"))
	go worker.Start(ctx)

	// 6. Setup Gin router
	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":       "healthy",
			"service":      serviceName,
			"refreshed_at": queue.RefreshedAt(),
		})
	})
	handler.RegisterRoutes(r, queue)
	handler.RegisterAuditRoutes(r, auditRepo, log.Named("audit"))

	// 7. Serve until interrupted, then shut down gracefully
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info("server exited")
	return nil
}

// bootstrap loads and validates configuration and builds the logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// newLocker returns the Redis writer lock when REDIS_ADDR is set and the in-process lock otherwise
func newLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("using in-process writer lock")
		return lock.NewLocalLocker(), func() {}, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis writer lock",
		zap.String("addr", cfg.Redis.Addr),
		zap.String("key", cfg.Redis.LockKey),
		zap.Duration("ttl", cfg.Redis.LockTTL),
	)
	locker := lock.NewRedisLocker(client, cfg.Redis.LockKey, cfg.Redis.LockTTL, log.Named("lock"))
	return locker, func() { _ = client.Close() }, nil
}
