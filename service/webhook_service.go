package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"payment-service/gateway"
	"payment-service/kafka"
	"payment-service/model"
	"payment-service/repository"
)

// WebhookService reconciles gateway events into local payment state. Events
// may be redelivered or arrive out of order; the terminal-state check is
// the sole ordering safeguard.
type WebhookService struct {
	store    PaymentStore
	gateway  gateway.Client
	notifier Notifier
	events   EventPublisher
}

func NewWebhookService(store PaymentStore, gw gateway.Client, notifier Notifier, events EventPublisher) *WebhookService {
	return &WebhookService{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		events:   events,
	}
}

// HandleEvent verifies the raw payload against its signature and applies
// the event. Returned errors map onto the HTTP contract:
// gateway.ErrInvalidSignature -> 400, repository.ErrNotFound -> 404,
// ErrStoreUpdate -> 500, nil -> 200. Unrecognized event types are accepted
// and ignored so the gateway never retries them.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		log.Printf("Webhook rejected: %v", err)
		return err
	}

	switch event.Type {
	case gateway.EventPaymentSucceeded:
		return s.applyTransition(ctx, event, model.StatusPaid)
	case gateway.EventPaymentFailed:
		return s.applyTransition(ctx, event, model.StatusFailed)
	default:
		log.Printf("Ignoring webhook event type %s", event.Type)
		return nil
	}
}

func (s *WebhookService) applyTransition(ctx context.Context, event *gateway.Event, target string) error {
	record, err := s.lookup(ctx, event)
	if err != nil {
		return err
	}

	// Redelivery of an already-applied event is a no-op, and a record in
	// the other terminal state never moves again.
	if !model.CanTransition(record.Status, target) {
		if record.Status != target {
			log.Printf("Webhook %s for order %s ignored: record already %s", event.Type, record.OrderID, record.Status)
		}
		return nil
	}

	if err := s.store.SetStatus(ctx, record, target); err != nil {
		// Notifications are suppressed: an unreconciled state must never
		// be advertised to the customer as an outcome.
		return fmt.Errorf("%w: %v", ErrStoreUpdate, err)
	}

	s.publish(record, target)
	s.notify(record, target)
	return nil
}

// lookup resolves the event to a local record: by the orderId correlation
// metadata when present, falling back to the gateway intent id (metadata
// propagation is not guaranteed on every gateway). No record is ever
// created here.
func (s *WebhookService) lookup(ctx context.Context, event *gateway.Event) (*model.Payment, error) {
	if orderID := event.Metadata["orderId"]; orderID != "" {
		record, err := s.store.FindByOrderID(ctx, orderID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if event.IntentID == "" {
		return nil, repository.ErrNotFound
	}
	return s.store.FindByIntentID(ctx, event.IntentID)
}

func (s *WebhookService) publish(record *model.Payment, status string) {
	topic := kafka.TopicPaymentPaid
	if status == model.StatusFailed {
		topic = kafka.TopicPaymentFailed
	}
	s.events.PublishPaymentEvent(topic, record)
}

// notify fires the customer side channels after the transition committed.
// SMS is skipped gracefully when no phone is on file; every failure is
// logged and swallowed.
func (s *WebhookService) notify(record *model.Payment, status string) {
	amount := fmt.Sprintf("%.2f %s", record.Amount, strings.ToUpper(record.Currency))

	var smsBody, subject, emailBody string
	if status == model.StatusPaid {
		smsBody = fmt.Sprintf("Payment of %s for order %s was successful.", amount, record.OrderID)
		subject = "Payment receipt"
		emailBody = fmt.Sprintf("Your payment of %s for order %s has been received. Thank you!", amount, record.OrderID)
	} else {
		smsBody = fmt.Sprintf("Payment of %s for order %s failed. Please try again.", amount, record.OrderID)
		subject = "Payment failed"
		emailBody = fmt.Sprintf("Your payment of %s for order %s could not be completed. Please try again.", amount, record.OrderID)
	}

	if record.Phone != "" {
		if err := s.notifier.SendSMS(record.Phone, smsBody); err != nil {
			log.Printf("SMS for order %s failed: %v", record.OrderID, err)
		}
	}

	if record.Email != "" {
		if err := s.notifier.SendEmail(record.Email, subject, emailBody); err != nil {
			log.Printf("Email for order %s failed: %v", record.OrderID, err)
		}
	}
}
