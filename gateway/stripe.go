package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeClient implements Client against the Stripe API. It is constructed
// once at boot and injected; there is no package-level client state.
type StripeClient struct {
	api           *client.API
	webhookSecret string
}

func NewStripeClient(apiKey, webhookSecret string) *StripeClient {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeClient{api: api, webhookSecret: webhookSecret}
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

func (s *StripeClient) CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		Amount:       stripe.Int64(p.Amount),
		Currency:     stripe.String(p.Currency),
		ReceiptEmail: stripe.String(p.ReceiptEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderId", p.OrderID)
	params.AddMetadata("userId", p.UserID)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	return intentFromStripe(pi), nil
}

func (s *StripeClient) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := s.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve intent %s: %w", id, err)
	}
	return intentFromStripe(pi), nil
}

func (s *StripeClient) CancelIntent(ctx context.Context, id string) error {
	_, err := s.api.PaymentIntents.Cancel(id, &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return fmt.Errorf("stripe cancel intent %s: %w", id, err)
	}
	return nil
}

// VerifyWebhook checks the signature over the raw payload and, when valid,
// flattens the event into the shape the reconciler consumes.
func (s *StripeClient) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{Type: string(event.Type), Metadata: map[string]string{}}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
		out.IntentID = pi.ID
		for k, v := range pi.Metadata {
			out.Metadata[k] = v
		}
	}
	return out, nil
}
