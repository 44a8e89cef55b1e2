package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/mestermind/backend/internal/logger"
)

// StripeClient is the thin slice of the Stripe API the payment flow needs.
// Tests substitute a fake.
type StripeClient interface {
	CreatePaymentIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntent(id string) (*stripe.PaymentIntent, error)
}

type stripeClient struct {
	log *logger.Logger
}

func NewStripeClient(log *logger.Logger, secretKey string) (StripeClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY")
	}
	stripe.Key = secretKey
	return &stripeClient{log: log.With("service", "StripeClient")}, nil
}

func (sc *stripeClient) CreatePaymentIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return paymentintent.New(params)
}

func (sc *stripeClient) GetPaymentIntent(id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, nil)
}
