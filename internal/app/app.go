package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	pb "github.com/godilite/victim-dashboards/api/v1"
	"github.com/godilite/victim-dashboards/internal/config"
	handler "github.com/godilite/victim-dashboards/internal/grpc"
	"github.com/godilite/victim-dashboards/internal/repository"
	"github.com/godilite/victim-dashboards/internal/scheduler"
	"github.com/godilite/victim-dashboards/internal/service"
	"github.com/godilite/victim-dashboards/pkg/cache"
	dbbuilder "github.com/godilite/victim-dashboards/pkg/database"
	grpcsrv "github.com/godilite/victim-dashboards/pkg/grpc/server"
)

const (
	initialLoadTimeout = 2 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	hub        *service.Hub
	reloader   *scheduler.Reloader
	grpcServer *grpcsrv.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dashboards, err := config.LoadDashboards(cfg.DashboardsFile)
	if err != nil {
		return nil, fmt.Errorf("dashboards config: %w", err)
	}

	var (
		dbPool    *sql.DB
		baselines BaselineStore
	)
	if cfg.BaselineDBPath != "" {
		dbPool, err = dbbuilder.New(
			dbbuilder.WithDriver(cfg.DBDriver),
			dbbuilder.WithDataSource(cfg.BaselineDBPath),
			dbbuilder.WithSchema(repository.BaselineSchema),
		)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		baselines = repository.NewBaselineRepository(dbPool)
		logger.Info("Baseline database initialized", zap.String("path", cfg.BaselineDBPath))
	}

	source, err := NewSource(cfg)
	if err != nil {
		closeDB(dbPool, logger)
		return nil, fmt.Errorf("dataset source: %w", err)
	}
	logger.Info("Dataset source configured", zap.String("source", cfg.DatasetSource))

	hub, err := NewHub(ctx, cfg, dashboards, source, baselines, logger)
	if err != nil {
		closeDB(dbPool, logger)
		return nil, fmt.Errorf("dashboards init failed: %w", err)
	}

	var (
		cacheClient *cache.Cache
		cacher      handler.Cacher
	)
	if cfg.RedisAddr != "" {
		cacheClient, err = cache.New(ctx, cacheOptions(cfg)...)
		if err != nil {
			closeDB(dbPool, logger)
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	}

	grpcHandlers := handler.NewGRPCHandlers(hub, cacher, logger, cfg.CacheTTL)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithRecovery(true),
		grpcsrv.WithLogging(true),
	)
	if err != nil {
		closeDB(dbPool, logger)
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterDashboardServiceServer(s, grpcHandlers)
	})

	reloader, err := scheduler.NewReloader(cfg.ReloadSchedule, hub.LoadAll, initialLoadTimeout, logger)
	if err != nil {
		closeDB(dbPool, logger)
		return nil, err
	}

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		hub:        hub,
		reloader:   reloader,
		grpcServer: grpcServer,
	}, nil
}

func cacheOptions(cfg *config.Config) []cache.Option {
	return []cache.Option{
		cache.WithAddress(cfg.RedisAddr),
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
		cache.WithKeyPrefix(cfg.CacheKeyPrefix),
	}
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("database shutdown error", zap.Error(err))
	}
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting", zap.Strings("dashboards", a.hub.Names()))

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), initialLoadTimeout)
	if err := a.hub.LoadAll(loadCtx); err != nil {
		a.logger.Warn("initial dashboard load incomplete", zap.Error(err))
	}
	cancelLoad()

	a.grpcServer.Start()

	if a.reloader != nil {
		a.reloader.Start(context.Background())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.reloader != nil {
		a.reloader.Stop()
	}

	if err := a.grpcServer.Shutdown(ctx); err != nil {
		a.logger.Warn("gRPC shutdown error", zap.Error(err))
	}

	a.hub.Close()

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	closeDB(a.dbPool, a.logger)

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			a.logger.Warn("shutdown completed but deadline exceeded")
		}
	default:
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return nil
}
