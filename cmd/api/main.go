package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/db"
	"github.com/weave-cash/backend/internal/events"
	apphttp "github.com/weave-cash/backend/internal/http"
	"github.com/weave-cash/backend/internal/http/handlers"
	"github.com/weave-cash/backend/internal/oneclick"
	"github.com/weave-cash/backend/internal/repositories"
	"github.com/weave-cash/backend/internal/services"
	"github.com/weave-cash/backend/migrations"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	provider := oneclick.NewClient(cfg.OneClickBaseURL, cfg.OneClickJWTToken, cfg.OneClickTimeout, log)
	addresses := assets.DefaultAddressValidator{}
	reconciler := services.NewReconciler(invoiceRepo, provider, auditRepo, publisher, log)
	quoteService := services.NewQuoteService(invoiceRepo, provider, addresses, auditRepo, publisher, cfg, log)
	invoiceService := services.NewInvoiceService(invoiceRepo, auditRepo, reconciler, addresses, log)

	// Handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, quoteService, log)
	wsHub := handlers.NewWSHub(subscriber, log)

	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to invoice events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, invoiceHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
