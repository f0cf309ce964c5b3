package routes

import (
	"log"

	"payment-service/controller"

	"github.com/gofiber/fiber/v2"
)

// RegisterPaymentRoutes wires the payment endpoints. The webhook route is
// only registered when a signing secret is configured; without one the
// service must never accept gateway events.
func RegisterPaymentRoutes(app *fiber.App, pc *controller.PaymentController, authMiddleware fiber.Handler, webhookEnabled bool) {
	p := app.Group("/payment")

	p.Post("/process", authMiddleware, pc.Process)

	if webhookEnabled {
		p.Post("/webhook", pc.Webhook)
	} else {
		log.Println("Webhook signing secret not configured, /payment/webhook disabled")
	}

	p.Get("/order/:orderId", authMiddleware, pc.GetByOrder)
	p.Get("/:id", authMiddleware, pc.Get)
}
