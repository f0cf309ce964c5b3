package controller

import (
	"context"
	"errors"
	"strconv"
	"time"

	"payment-service/gateway"
	"payment-service/repository"
	"payment-service/service"

	"github.com/gofiber/fiber/v2"
)

// The creation path makes up to three sequential gateway calls plus two
// store operations, so it gets a wider budget than a plain query.
const (
	processTimeout = 15 * time.Second
	queryTimeout   = 5 * time.Second
)

type PaymentController struct {
	charges  *service.PaymentService
	webhooks *service.WebhookService
	store    service.PaymentStore
}

func NewPaymentController(charges *service.PaymentService, webhooks *service.WebhookService, store service.PaymentStore) *PaymentController {
	return &PaymentController{
		charges:  charges,
		webhooks: webhooks,
		store:    store,
	}
}

// Process handles POST /payment/process.
func (pc *PaymentController) Process(c *fiber.Ctx) error {
	var body struct {
		OrderID  string  `json:"orderId"`
		UserID   string  `json:"userId"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Email    string  `json:"email"`
		Phone    string  `json:"phone"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	result, err := pc.charges.RequestCharge(ctx, service.ChargeRequest{
		OrderID:  body.OrderID,
		UserID:   body.UserID,
		Amount:   body.Amount,
		Currency: body.Currency,
		Email:    body.Email,
		Phone:    body.Phone,
	})

	switch {
	case errors.Is(err, service.ErrPhoneRequired):
		return c.Status(400).JSON(fiber.Map{"error": "Phone number is required."})
	case errors.Is(err, service.ErrInvalidAmount):
		return c.Status(400).JSON(fiber.Map{"error": "Amount must be positive."})
	case errors.Is(err, service.ErrPaymentConflict):
		return c.Status(409).JSON(fiber.Map{
			"error":       "Payment is being processed by another request. Please retry.",
			"shouldRetry": true,
		})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Payment processing failed"})
	}

	return c.JSON(fiber.Map{
		"clientSecret":   result.ClientSecret,
		"paymentId":      result.PaymentID,
		"disablePayment": result.DisablePayment,
	})
}

// Webhook handles POST /payment/webhook. The body must stay raw: the
// signature is computed over the exact bytes the gateway sent.
func (pc *PaymentController) Webhook(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := pc.webhooks.HandleEvent(ctx, c.Body(), c.Get("Stripe-Signature"))

	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		return c.Status(400).SendString("Webhook signature verification failed")
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Payment record not found"})
	case errors.Is(err, service.ErrStoreUpdate):
		return c.Status(500).JSON(fiber.Map{"error": "Database update failed"})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Webhook processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}

// Get handles GET /payment/:id.
func (pc *PaymentController) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	payment, err := pc.store.FindByID(ctx, uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Payment record not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(payment)
}

// GetByOrder handles GET /payment/order/:orderId.
func (pc *PaymentController) GetByOrder(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	payment, err := pc.store.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Payment record not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(payment)
}
