package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"payment-service/gateway"
	"payment-service/model"
	"payment-service/repository"

	"github.com/shopspring/decimal"
)

// ChargeRequest carries everything needed to open a charge for an order.
type ChargeRequest struct {
	OrderID  string
	UserID   string
	Amount   float64
	Currency string
	Email    string
	Phone    string
}

// ChargeResult is handed back to the client. DisablePayment true means the
// order is already paid and the front-end must not collect again.
type ChargeResult struct {
	ClientSecret   string
	PaymentID      uint
	DisablePayment bool
}

// PaymentService is the intent lifecycle manager. It creates or reuses
// gateway intents idempotently and recovers from creation races through
// the store's uniqueness constraint.
type PaymentService struct {
	store           PaymentStore
	gateway         gateway.Client
	notifier        Notifier
	defaultCurrency string
}

func NewPaymentService(store PaymentStore, gw gateway.Client, notifier Notifier, defaultCurrency string) *PaymentService {
	return &PaymentService{
		store:           store,
		gateway:         gw,
		notifier:        notifier,
		defaultCurrency: defaultCurrency,
	}
}

// RequestCharge opens (or reuses) a payment intent for the order.
//
// Duplicate calls for the same order converge on one gateway intent: an
// existing pending record whose intent is still awaiting a payment method
// is returned unchanged, a paid record short-circuits with DisablePayment,
// and a stale intent is cancelled and replaced. A duplicate-key failure on
// persist means a concurrent caller won the race, so we re-read and
// converge on whatever it persisted instead of retrying blindly.
func (s *PaymentService) RequestCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, ErrPhoneRequired
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	existing, err := s.store.FindByOrderID(ctx, req.OrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if existing != nil && existing.ClientSecret != "" {
		// Duplicate-charge guard: checked before anything else.
		if existing.Status == model.StatusPaid {
			return &ChargeResult{PaymentID: existing.ID, DisablePayment: true}, nil
		}

		intent, rerr := s.gateway.RetrieveIntent(ctx, existing.IntentID)
		if rerr == nil && intent.Status == gateway.IntentStatusRequiresPaymentMethod {
			// Rapid duplicate call (page reload): hand back the same
			// secret rather than minting a redundant intent.
			return &ChargeResult{ClientSecret: existing.ClientSecret, PaymentID: existing.ID}, nil
		}

		// Stale intent: cancel best-effort and clear the record so a
		// fresh attempt can claim the order id. The intent may already
		// be expired on the gateway side, so cancel failures are only
		// logged.
		if cerr := s.gateway.CancelIntent(ctx, existing.IntentID); cerr != nil {
			log.Printf("Cancel of stale intent %s failed (assuming expired): %v", existing.IntentID, cerr)
		}
		if derr := s.store.Delete(ctx, existing); derr != nil {
			return nil, fmt.Errorf("replace stale payment for order %s: %w", req.OrderID, derr)
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.CreateIntentParams{
		Amount:       MinorUnits(req.Amount),
		Currency:     currency,
		OrderID:      req.OrderID,
		UserID:       req.UserID,
		ReceiptEmail: req.Email,
	})
	if err != nil {
		// No partial record: the record is only persisted after the
		// gateway call succeeds.
		return nil, fmt.Errorf("create intent for order %s: %w", req.OrderID, err)
	}

	record := &model.Payment{
		OrderID:      req.OrderID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		Currency:     currency,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       model.StatusPending,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}

	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return s.recoverFromRace(ctx, req.OrderID)
		}
		return nil, err
	}

	if nerr := s.notifier.SendSMS(req.Phone, fmt.Sprintf("Payment of %.2f %s initiated for order %s.", req.Amount, strings.ToUpper(currency), req.OrderID)); nerr != nil {
		log.Printf("SMS for order %s failed: %v", req.OrderID, nerr)
	}

	return &ChargeResult{ClientSecret: intent.ClientSecret, PaymentID: record.ID}, nil
}

// recoverFromRace handles a duplicate-key failure on persist: a concurrent
// request for the same order won. Re-read and converge on its record.
func (s *PaymentService) recoverFromRace(ctx context.Context, orderID string) (*ChargeResult, error) {
	record, err := s.store.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		// Duplicate key fired but the record is gone: an inconsistent
		// failure mode that warrants operator attention.
		return nil, fmt.Errorf("payment record for order %s missing after duplicate-key conflict", orderID)
	}
	if err != nil {
		return nil, err
	}

	if record.Status == model.StatusPaid {
		return &ChargeResult{PaymentID: record.ID, DisablePayment: true}, nil
	}

	intent, err := s.gateway.RetrieveIntent(ctx, record.IntentID)
	if err == nil && intent.Status == gateway.IntentStatusRequiresPaymentMethod {
		// Both racing callers converge on the winner's intent.
		return &ChargeResult{ClientSecret: record.ClientSecret, PaymentID: record.ID}, nil
	}

	// Cleaning up the stale intent here would race again; let the caller
	// retry on a quiet path.
	return nil, ErrPaymentConflict
}

// MinorUnits converts a decimal amount to integer minor units for the
// gateway boundary (99.99 -> 9999).
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
