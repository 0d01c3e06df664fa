package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	webAdapter "stockmanager/internal/adapters/web"
	"stockmanager/internal/app"
	"stockmanager/internal/config"
	"stockmanager/internal/core"
	"stockmanager/internal/db"
	"stockmanager/internal/events"
	"stockmanager/internal/redisx"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, log, 256)
		producer.Start(ctx)
	}

	stockService := core.NewStockService(pool)
	customerOrderService := core.NewCustomerOrderService(pool)
	supplierOrderService := core.NewSupplierOrderService(pool)

	svc := app.NewAppService(stockService, customerOrderService, supplierOrderService,
		rdb, producer, cfg.ServiceName, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           webAdapter.NewHandler(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}
