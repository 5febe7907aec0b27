package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/replaygames/replay-backend/api/routes"
	"github.com/replaygames/replay-backend/internal/balances"
	"github.com/replaygames/replay-backend/internal/catalog"
	"github.com/replaygames/replay-backend/internal/deposits"
	"github.com/replaygames/replay-backend/internal/promos"
	"github.com/replaygames/replay-backend/internal/reports"
	"github.com/replaygames/replay-backend/internal/sales"
	"github.com/replaygames/replay-backend/internal/sessions"
	"github.com/replaygames/replay-backend/internal/users"
	"github.com/replaygames/replay-backend/pkg/config"
	"github.com/replaygames/replay-backend/pkg/db"
	"github.com/replaygames/replay-backend/pkg/logger"
	"github.com/replaygames/replay-backend/pkg/metrics"
	"github.com/replaygames/replay-backend/pkg/migrate"
	"github.com/replaygames/replay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	saleMetrics := metrics.NewSaleMetrics(registry)

	gormDB := dbClient.DB()

	usersService, err := users.NewService(users.NewRepository(gormDB), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	sessionsRepo := sessions.NewRepository(gormDB)
	sessionsService, err := sessions.NewService(sessionsRepo, dbClient, saleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sessions service", err)
		os.Exit(1)
	}

	depositsService, err := deposits.NewService(deposits.NewRepository(gormDB), sessionsService, dbClient, saleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create deposits service", err)
		os.Exit(1)
	}

	promosService, err := promos.NewService(promos.NewRepository(gormDB), redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create promos service", err)
		os.Exit(1)
	}

	balancesService, err := balances.NewService(balances.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create balances service", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(gormDB)
	salesService, err := sales.NewService(salesRepo, dbClient, promosService, balancesService, saleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Metrics:  registry,
			Users:    usersService,
			Sessions: sessionsService,
			Deposits: depositsService,
			Sales:    salesService,
			Balances: balancesService,
			Promos:   promosService,
			Catalog:  catalogService,
			Reports:  reportsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
