package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/http/handlers"
	"github.com/weave-cash/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	invoiceHandler *handlers.InvoiceHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/tokens", metaHandler.GetTokens)
	api.Get("/meta/statuses", metaHandler.GetStatuses)

	// Buyer-facing, addressed by invoice id
	api.Get("/invoices/:id", invoiceHandler.GetInvoice)
	api.Get("/invoices/:id/status", invoiceHandler.GetInvoiceStatus)
	api.Post("/invoices/:id/quote", invoiceHandler.RequestQuote)

	// Merchant
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))
	protected.Post("/invoices", invoiceHandler.CreateInvoice)
	protected.Get("/invoices", invoiceHandler.ListInvoices)
	protected.Get("/invoices/:id/events", invoiceHandler.GetInvoiceEvents)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
