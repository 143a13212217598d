package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskhive/pkg/access"
	"github.com/platinummonkey/taskhive/pkg/api"
	"github.com/platinummonkey/taskhive/pkg/audit"
	"github.com/platinummonkey/taskhive/pkg/auth"
	"github.com/platinummonkey/taskhive/pkg/comments"
	"github.com/platinummonkey/taskhive/pkg/config"
	"github.com/platinummonkey/taskhive/pkg/invites"
	"github.com/platinummonkey/taskhive/pkg/lists"
	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/storage"
	"github.com/platinummonkey/taskhive/pkg/tags"
	"github.com/platinummonkey/taskhive/pkg/tasks"
	"github.com/platinummonkey/taskhive/pkg/users"
)

const dbStatsInterval = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx, db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	var auditor *audit.DBRecorder
	if cfg.Observability.AuditEnabled {
		auditor = audit.NewDBRecorder(db, logger)
	}

	accessSvc := access.NewService(db, recorderOrNop(auditor), logger)
	gateOpts := []access.GateOption{}
	if metrics != nil {
		gateOpts = append(gateOpts, access.WithObserver(metrics.ObserveAccessCheck))
	}
	gate := access.NewGate(accessSvc, gateOpts...)

	userSvc, err := users.NewService(users.NewStore(db))
	if err != nil {
		logger.WithError(err).Error("failed to build user service")
		os.Exit(1)
	}

	inviteSvc := invites.NewService(db, gate, userSvc, recorderOrNop(auditor),
		invites.WithTTL(cfg.Invites.TTL))

	var sweptCounter prometheus.Counter
	if metrics != nil {
		sweptCounter = metrics.InvitesSweptTotal
	}
	sweeper := invites.NewSweeper(inviteSvc, cfg.Invites.SweepSchedule, logger, sweptCounter)
	if err := sweeper.Start(); err != nil {
		logger.WithError(err).Error("failed to start invite sweeper")
		os.Exit(1)
	}
	defer sweeper.Stop()

	server := api.NewServer(api.Services{
		Users:    userSvc,
		Lists:    lists.NewService(db, gate, recorderOrNop(auditor)),
		Tasks:    tasks.NewService(db, gate),
		Comments: comments.NewService(db, gate),
		Tags:     tags.NewService(db, gate),
		Invites:  inviteSvc,
		Access:   accessSvc,
		Tokens:   auth.NewStore(db),
		Audit:    auditor,
	}, gate, metrics, logger)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(db, metrics),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if metrics != nil {
		group.Go(func() error {
			ticker := time.NewTicker(dbStatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					metrics.CollectDBStats(db)
				}
			}
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// healthMux serves the probe and metrics endpoints on the side port.
func healthMux(db *sql.DB, metrics *observability.Metrics) http.Handler {
	health := observability.NewHealthHandler(db)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.Live)
	mux.HandleFunc("/readyz", health.Ready)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}

func recorderOrNop(r *audit.DBRecorder) audit.Recorder {
	if r == nil {
		return audit.NopRecorder{}
	}
	return r
}
