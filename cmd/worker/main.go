package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/db"
	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/oneclick"
	"github.com/weave-cash/backend/internal/repositories"
	"github.com/weave-cash/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	provider := oneclick.NewClient(cfg.OneClickBaseURL, cfg.OneClickJWTToken, cfg.OneClickTimeout, log)
	reconciler := services.NewReconciler(invoiceRepo, provider, auditRepo, publisher, log)

	go serveHealth(cfg.WorkerPort, log)

	log.Info("worker started",
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
		zap.Duration("expiry_grace", cfg.ExpiryGrace),
	)

	// Run jobs on tickers
	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	expiryTicker := time.NewTicker(time.Minute)
	defer reconcileTicker.Stop()
	defer expiryTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reconcileTicker.C:
			runReconcile(ctx, reconciler, cfg.ReconcileBatchSize, log)
		case <-expiryTicker.C:
			runExpirySweep(ctx, reconciler, cfg.ExpiryGrace, cfg.ReconcileBatchSize, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runReconcile(ctx context.Context, reconciler *services.Reconciler, batch int, log *zap.Logger) {
	changed, err := reconciler.ReconcileBatch(ctx, batch)
	if err != nil {
		log.Error("reconcile batch failed", zap.Error(err))
		return
	}
	if changed > 0 {
		log.Info("reconcile batch done", zap.Int("changed", changed))
	}
}

func runExpirySweep(ctx context.Context, reconciler *services.Reconciler, grace time.Duration, batch int, log *zap.Logger) {
	expired, err := reconciler.SweepExpired(ctx, grace, batch)
	if err != nil {
		log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		log.Info("expiry sweep done", zap.Int("expired", expired))
	}
}

func serveHealth(port string, log *zap.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if err := app.Listen(fmt.Sprintf(":%s", port)); err != nil {
		log.Error("worker health server stopped", zap.Error(err))
	}
}
