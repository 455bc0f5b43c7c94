package booking

import (
	"context"
	"fmt"

	"veridie/models"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// PaymentGateway retrieves checkout sessions from the payment provider.
type PaymentGateway interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.PaymentSession, error)
}

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway with its own Stripe client; nothing is
// shared through package globals.
func NewStripeGateway(apiKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{api: sc}
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}

	normalized := &models.PaymentSession{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}
	if sess.CustomerDetails != nil {
		normalized.CustomerName = sess.CustomerDetails.Name
		normalized.CustomerEmail = sess.CustomerDetails.Email
	}
	return normalized, nil
}
