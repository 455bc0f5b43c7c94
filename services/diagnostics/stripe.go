package diagnostics

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeAccountClient implements StripeAccounts against the Stripe API.
type StripeAccountClient struct {
	api *client.API
}

func NewStripeAccountClient(apiKey string) *StripeAccountClient {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeAccountClient{api: sc}
}

func (c *StripeAccountClient) CreateTestAccount(ctx context.Context) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
	}
	params.Context = ctx
	account, err := c.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create test account: %w", err)
	}
	return account.ID, nil
}

func (c *StripeAccountClient) DeleteAccount(ctx context.Context, accountID string) error {
	params := &stripe.AccountParams{}
	params.Context = ctx
	if _, err := c.api.Accounts.Del(accountID, params); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	return nil
}

func (c *StripeAccountClient) GetAccount(ctx context.Context, accountID string) (*AccountState, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	account, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", accountID, err)
	}
	return &AccountState{
		ChargesEnabled: account.ChargesEnabled,
		PayoutsEnabled: account.PayoutsEnabled,
	}, nil
}
