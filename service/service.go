// Package service owns the payment-intent lifecycle: the idempotent charge
// request path and the webhook reconciliation path. Everything it touches
// sits behind a small interface so tests run against doubles.
package service

import (
	"context"
	"errors"

	"payment-service/model"
)

var (
	// ErrPhoneRequired rejects a charge request before any store or
	// gateway call is made; the notification step downstream would be
	// unreachable without a phone number.
	ErrPhoneRequired = errors.New("phone number is required")
	// ErrInvalidAmount rejects non-positive charge amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrPaymentConflict tells the caller a concurrent request won the
	// race and left an unusable intent behind; the caller should retry.
	ErrPaymentConflict = errors.New("concurrent payment request conflict")
	// ErrStoreUpdate marks a failed status write after a verified event.
	ErrStoreUpdate = errors.New("payment status update failed")
)

// PaymentStore is the durable per-order record store. Implemented by
// repository.PaymentRepository.
type PaymentStore interface {
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
	FindByID(ctx context.Context, id uint) (*model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	SetStatus(ctx context.Context, p *model.Payment, status string) error
	Delete(ctx context.Context, p *model.Payment) error
}

// Notifier is the best-effort SMS/email side channel.
type Notifier interface {
	SendSMS(phone, body string) error
	SendEmail(to, subject, body string) error
}

// EventPublisher announces committed terminal transitions to the rest of
// the platform. Implemented by kafka.Producer.
type EventPublisher interface {
	PublishPaymentEvent(topic string, payment *model.Payment)
}
