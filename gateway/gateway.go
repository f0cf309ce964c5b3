package gateway

import (
	"context"
	"errors"
)

// Intent statuses we care about. Only an intent still waiting for a payment
// method can be reused by a repeated charge request; every other state makes
// the stored record stale.
const IntentStatusRequiresPaymentMethod = "requires_payment_method"

// Event types emitted by the gateway that drive local state. Anything else
// is acknowledged and ignored.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ErrInvalidSignature marks a webhook that failed signature verification.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Intent is the gateway-side charge attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a verified webhook notification.
type Event struct {
	Type     string
	IntentID string
	Metadata map[string]string
}

type CreateIntentParams struct {
	// Amount in minor units (cents).
	Amount       int64
	Currency     string
	OrderID      string
	UserID       string
	ReceiptEmail string
}

// Client is the port to the external payment gateway. The production
// implementation is Stripe; tests inject doubles.
type Client interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
