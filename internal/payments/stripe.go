package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates a confirmed-on-client PaymentIntent per ticket.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (s *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if req.Amount <= 0 {
		return Receipt{}, fmt.Errorf("%w: amount must be positive", ErrDeclined)
	}
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return Receipt{Reference: pi.ID, Status: string(pi.Status)}, nil
}
