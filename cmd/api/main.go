package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmreyes/milasset-backend/api"
	"github.com/dmreyes/milasset-backend/api/routes"
	"github.com/dmreyes/milasset-backend/internal/assets"
	"github.com/dmreyes/milasset-backend/internal/assignments"
	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/auth"
	"github.com/dmreyes/milasset-backend/internal/bases"
	"github.com/dmreyes/milasset-backend/internal/dashboard"
	"github.com/dmreyes/milasset-backend/internal/expenditures"
	"github.com/dmreyes/milasset-backend/internal/purchases"
	"github.com/dmreyes/milasset-backend/internal/transfers"
	"github.com/dmreyes/milasset-backend/internal/users"
	"github.com/dmreyes/milasset-backend/pkg/auth/session"
	"github.com/dmreyes/milasset-backend/pkg/config"
	"github.com/dmreyes/milasset-backend/pkg/db"
	"github.com/dmreyes/milasset-backend/pkg/logger"
	"github.com/dmreyes/milasset-backend/pkg/metrics"
	"github.com/dmreyes/milasset-backend/pkg/migrate"
	"github.com/dmreyes/milasset-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	auditRepo := audit.NewRepository(gormDB)
	recorder, err := audit.NewRecorder(cfg.Audit, auditRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(gormDB)
	baseRepo := bases.NewRepository(gormDB)
	assetRepo := assets.NewRepository(gormDB)
	assignmentRepo := assignments.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	baseService, err := bases.NewService(baseRepo, dbClient, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create base service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(userRepo, dbClient, baseRepo, recorder, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	assetService, err := assets.NewService(assetRepo, dbClient, baseRepo, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create asset service", err)
		os.Exit(1)
	}
	purchaseService, err := purchases.NewService(purchases.NewRepository(gormDB), assetRepo, dbClient, baseRepo, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}
	transferService, err := transfers.NewService(transfers.NewRepository(gormDB), assetRepo, dbClient, baseRepo, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create transfer service", err)
		os.Exit(1)
	}
	assignmentService, err := assignments.NewService(assignmentRepo, assetRepo, dbClient, userRepo, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment service", err)
		os.Exit(1)
	}
	expenditureService, err := expenditures.NewService(expenditures.NewRepository(gormDB), assetRepo, assignmentRepo, dbClient, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create expenditure service", err)
		os.Exit(1)
	}
	auditService, err := audit.NewService(auditRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}
	dashboardService, err := dashboard.NewService(dashboard.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	handler := routes.NewRouter(cfg, logg, httpMetrics, metricsHandler, dbClient, redisClient, sessionManager, routes.Services{
		Auth:         authService,
		Bases:        baseService,
		Users:        userService,
		Assets:       assetService,
		Purchases:    purchaseService,
		Transfers:    transferService,
		Assignments:  assignmentService,
		Expenditures: expenditureService,
		Audit:        auditService,
		Dashboard:    dashboardService,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := recorder.Run(rootCtx); err != nil {
			logg.Error(rootCtx, "audit recorder stopped with error", err)
		}
	}()

	port := os.Getenv("PORT")
	if port != "" {
		cfg.App.Port = port
	}
	server := api.NewServer(cfg, handler)

	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-rootCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
		recorder.Wait()
	}
	logg.Info(ctx, "api server stopped")
}
