// Package main provides the entry point for the win-probability prediction API.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/api"
	"github.com/yourusername/ipl-winprob/internal/config"
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/database"
	"github.com/yourusername/ipl-winprob/internal/health"
	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/metrics"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/repository"
	"github.com/yourusername/ipl-winprob/internal/scheduler"
	"github.com/yourusername/ipl-winprob/internal/service"
	"github.com/yourusername/ipl-winprob/internal/tracing"
)

// Version is set at build time via ldflags
var Version = "dev"

const memoryLogCapacity = 1000

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("WINPROB_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Bootstrap(ctx, configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"backend":     cfg.Model.Backend,
	}).Info("Win probability service starting")

	metrics.InitRegistry()

	if err := tracing.Initialize(cfg.Tracing, appLog); err != nil {
		appLog.WithError(err).Fatal("Failed to initialize tracing")
	}

	catalog := cricket.DefaultCatalog()
	if cfg.Model.CatalogPath != "" {
		if catalog, err = cricket.LoadCatalog(cfg.Model.CatalogPath); err != nil {
			appLog.WithError(err).Fatal("Failed to load team catalog")
		}
	}

	backend, err := ml.NewBackend(ctx, cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize model backend")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			appLog.WithError(err).Error("Failed to close model backend")
		}
	}()
	metrics.SetModelLoaded(backend.Predictor.Info().Version != "")

	var (
		db    *database.DB
		repos *repository.Repositories
	)
	if cfg.Database.Enabled {
		if db, err = database.Initialize(ctx, cfg); err != nil {
			appLog.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if repos, err = repository.NewRepositories(db); err != nil {
			appLog.WithError(err).Fatal("Failed to create repositories")
		}
		_, _, maxConns := db.Stats()
		appLog.WithField("max_connections", maxConns).Info("Prediction log stored in database")
	} else {
		repos = repository.NewMemoryRepositories(memoryLogCapacity)
		appLog.WithField("capacity", memoryLogCapacity).Info("Prediction log kept in memory")
	}

	predictions := service.NewPredictionService(backend.Predictor, catalog, repos.Prediction, cfg.Model.Backend, appLog)
	defer predictions.Close()

	stats := service.NewStatsService(cfg.Data.MatchesPath, catalog, appLog)

	apiServer, err := api.NewServer(cfg, api.Dependencies{
		Predictions: predictions,
		Stats:       stats,
		Predictor:   backend.Predictor,
	}, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create API server")
	}

	var grpcServer *api.GRPCServer
	if addr := cfg.GRPCListenAddr(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to listen for gRPC")
		}
		grpcServer = api.NewGRPCServer(backend.Predictor, appLog)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				appLog.WithError(err).Error("gRPC server stopped")
			}
		}()
	}

	healthServer := health.NewServer(healthConfig(cfg, backend, db, appLog))
	if p, ok := backend.Cache.(pinger); ok {
		healthServer.AddCheck("cache", p.Ping)
	}
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	sched, err := newScheduler(cfg, backend, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to schedule jobs")
	}
	if sched != nil {
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- apiServer.Start()
	}()

	healthServer.SetReady(true)
	if grpcServer != nil {
		grpcServer.SetServing(true)
	}
	appLog.WithField("addr", cfg.ListenAddr()).Info("Win probability service ready")

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			appLog.WithError(err).Error("Prediction API failed")
		}
	}

	healthServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Failed to stop scheduler")
		}
	}
	if grpcServer != nil {
		grpcServer.Stop(shutdownCtx)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		appLog.WithError(err).Error("Failed to shut down API server")
	}
	if err := healthServer.Shutdown(); err != nil {
		appLog.WithError(err).Error("Failed to shut down health server")
	}

	appLog.Info("Win probability service stopped")
}

func healthConfig(cfg *config.Config, backend *ml.Backend, db *database.DB, appLog *logrus.Logger) health.Config {
	hc := health.Config{
		ServiceName:  cfg.App.Name,
		Version:      Version,
		Port:         cfg.Health.Port,
		Logger:       appLog,
		ModelVersion: func() string { return backend.Predictor.Info().Version },
	}
	if db != nil {
		hc.DB = db
	}

	if backend.Holder != nil {
		hc.Model = func(context.Context) error {
			if !backend.Holder.Ready() {
				return ml.ErrModelNotLoaded
			}
			return nil
		}
	} else {
		hc.Model = backend.Health
	}
	return hc
}

// newScheduler returns nil when no periodic job is configured
func newScheduler(cfg *config.Config, backend *ml.Backend, appLog *logrus.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(appLog)

	if cfg.Model.ReloadCron != "" {
		reload := func(ctx context.Context) (bool, error) {
			changed, err := backend.Reload(ctx)
			if err == nil {
				metrics.SetModelLoaded(backend.Predictor.Info().Version != "")
			}
			return changed, err
		}
		if err := sched.ScheduleModelReload(cfg.Model.ReloadCron, reload); err != nil {
			return nil, err
		}
	}

	if cfg.Cache.SweepCron != "" {
		if sw, ok := backend.Cache.(scheduler.Sweeper); ok {
			if err := sched.ScheduleCacheSweep(cfg.Cache.SweepCron, sw); err != nil {
				return nil, err
			}
		}
	}

	if sched.JobCount() == 0 {
		return nil, nil
	}
	return sched, nil
}
