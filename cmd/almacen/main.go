package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/almacen-pos/almacen/internal/app"
	"github.com/almacen-pos/almacen/internal/caja"
	"github.com/almacen-pos/almacen/internal/catalog/products"
	"github.com/almacen-pos/almacen/internal/catalog/suppliers"
	"github.com/almacen-pos/almacen/internal/observability"
	"github.com/almacen-pos/almacen/internal/platform/cache"
	"github.com/almacen-pos/almacen/internal/platform/db"
	"github.com/almacen-pos/almacen/internal/shared"
	"github.com/almacen-pos/almacen/internal/users"
	"github.com/almacen-pos/almacen/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	cajaService := caja.NewService(
		caja.NewRepository(dbpool),
		auditLogger,
		cache.NewCache(redisClient, "caja", cfg.CacheTTL),
		caja.NewMetrics(metrics.Registerer()),
		logger,
	)
	productService := products.NewService(
		products.NewRepository(dbpool),
		cache.NewCache(redisClient, "products", cfg.CacheTTL),
		logger,
	)
	supplierService := suppliers.NewService(suppliers.NewRepository(dbpool))
	userService := users.NewService(users.NewRepository(dbpool))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CajaHandler:      caja.NewHandler(logger, cajaService),
		ProductsHandler:  products.NewHandler(logger, productService),
		SuppliersHandler: suppliers.NewHandler(logger, supplierService),
		UsersHandler:     users.NewHandler(logger, userService),
		JobHandler:       jobs.NewHandler(inspector, jobClient, cfg.StaleSessionAfter, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
