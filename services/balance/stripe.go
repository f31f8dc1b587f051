package balance

import (
	"context"
	"fmt"
	"math"

	"slotbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// CardCharger takes a card payment that funds a top-up.
type CardCharger interface {
	Charge(ctx context.Context, clientID string, req models.CardTopUpRequest, currency string) (*models.CardCharge, error)
}

// StripeCharger creates and confirms a PaymentIntent. stripe.Key must be set at startup.
type StripeCharger struct{}

func (StripeCharger) Charge(ctx context.Context, clientID string, req models.CardTopUpRequest, currency string) (*models.CardCharge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("client_id", clientID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent failed: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("card payment not completed, status %s", pi.Status)
	}
	return &models.CardCharge{
		PaymentID: pi.ID,
		Amount:    float64(pi.Amount) / 100,
		Currency:  string(pi.Currency),
		Status:    string(pi.Status),
	}, nil
}
