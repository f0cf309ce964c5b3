package main

import (
	"log"

	"payment-service/cache"
	"payment-service/config"
	"payment-service/controller"
	"payment-service/gateway"
	kafkax "payment-service/kafka"
	"payment-service/middleware"
	"payment-service/model"
	"payment-service/notifier"
	"payment-service/repository"
	"payment-service/routes"
	"payment-service/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ======================
// INIT DATABASE
// ======================
func initDB(cfg *config.Config) *gorm.DB {
	// TranslateError turns the order_id unique violation into
	// gorm.ErrDuplicatedKey, which the repository maps for race recovery.
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect payment db:", err)
	}

	if err := db.AutoMigrate(&model.Payment{}); err != nil {
		log.Fatal(err)
	}

	return db
}

func main() {
	cfg := config.Load()

	db := initDB(cfg)
	rdb := cache.Connect(cfg.RedisAddr)
	producer := kafkax.NewProducer(cfg.KafkaBroker)

	if cfg.StripeAPIKey == "" {
		log.Fatal("STRIPE_API_KEY is required")
	}

	// ======================
	// WIRING
	// ======================
	stripeClient := gateway.NewStripeClient(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
	notify := notifier.New(cfg)
	store := repository.New(db, rdb)

	charges := service.NewPaymentService(store, stripeClient, notify, cfg.DefaultCurrency)
	webhooks := service.NewWebhookService(store, stripeClient, notify, producer)

	pc := controller.NewPaymentController(charges, webhooks, store)

	// ======================
	// HTTP SERVER (Fiber)
	// ======================
	app := fiber.New()
	app.Use(logger.New())

	routes.RegisterPaymentRoutes(
		app,
		pc,
		middleware.AuthRequired(cfg.JWTSecret),
		cfg.StripeWebhookSecret != "",
	)

	log.Printf("HTTP server running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("fiber error:", err)
	}
}
