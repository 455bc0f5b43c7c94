package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"veridie/config"
	"veridie/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStripeAccounts struct {
	createErr  error
	deleted    []string
	account    *AccountState
	getErr     error
	createCall int
}

func (f *fakeStripeAccounts) CreateTestAccount(ctx context.Context) (string, error) {
	f.createCall++
	if f.createErr != nil {
		return "", f.createErr
	}
	return "acct_test", nil
}

func (f *fakeStripeAccounts) DeleteAccount(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStripeAccounts) GetAccount(ctx context.Context, id string) (*AccountState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.account, nil
}

type fakeConsultantLookup struct {
	consultant *models.Consultant
	err        error
}

func (f *fakeConsultantLookup) GetByID(id string) (*models.Consultant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.consultant, nil
}
func (f *fakeConsultantLookup) GetService(string, string) (*models.Service, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeConsultantLookup) Create(*models.Consultant) error                       { return nil }
func (f *fakeConsultantLookup) Delete(string) error                                   { return nil }
func (f *fakeConsultantLookup) UpdateCredential(string, models.CalendlyCredential) error { return nil }
func (f *fakeConsultantLookup) ClearCredential(string) error                          { return nil }
func (f *fakeConsultantLookup) UpdateEventTypeMapping(string, string, string) error   { return nil }
func (f *fakeConsultantLookup) SetPaymentAccount(string, string, bool, bool) error    { return nil }
func (f *fakeConsultantLookup) ListExpiringCredentials(time.Time) ([]models.Consultant, error) {
	return nil, nil
}

func fullConfig() config.Config {
	return config.Config{
		StripeKey:            "sk_test",
		CalendlyClientID:     "cid",
		CalendlyClientSecret: "secret",
		CalendlyRedirectURI:  "http://localhost/callback",
		DatabaseURL:          "mongodb://localhost:27017",
		AdminJWTSecret:       "admin-secret",
	}
}

func findCheck(t *testing.T, report *models.DiagnosticsReport, name string) models.CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found in %+v", name, report.Checks)
	return models.CheckResult{}
}

func TestRunContinuesPastFailures(t *testing.T) {
	cfg := fullConfig()
	cfg.CalendlyClientSecret = "" // one failing config check
	stripe := &fakeStripeAccounts{createErr: fmt.Errorf("stripe unreachable")}

	r := &DefaultReporter{Cfg: cfg, Stripe: stripe, Logger: zap.NewNop()}
	report := r.Run(context.Background(), "")

	// Failed checks did not stop later checks from running.
	require.False(t, findCheck(t, report, "env:CALENDLY_CLIENT_SECRET").Passed)
	require.True(t, findCheck(t, report, "env:STRIPE_SECRET_KEY").Passed)
	require.False(t, findCheck(t, report, "stripe:roundtrip").Passed)
	require.False(t, findCheck(t, report, "schema:connection").Passed)
	require.False(t, report.Healthy())
	require.NotEmpty(t, report.Recommendations)
}

func TestStripeRoundTripDeletesThrowawayAccount(t *testing.T) {
	stripe := &fakeStripeAccounts{}
	r := &DefaultReporter{Cfg: fullConfig(), Stripe: stripe, Logger: zap.NewNop()}

	report := r.Run(context.Background(), "")
	require.True(t, findCheck(t, report, "stripe:roundtrip").Passed)
	require.Equal(t, 1, stripe.createCall)
	require.Equal(t, []string{"acct_test"}, stripe.deleted)
}

func TestConsultantConsistencyMismatch(t *testing.T) {
	stripe := &fakeStripeAccounts{account: &AccountState{ChargesEnabled: true, PayoutsEnabled: false}}
	lookup := &fakeConsultantLookup{consultant: &models.Consultant{
		ID:              "m1",
		StripeAccountID: "acct_1",
		ChargesEnabled:  true,
		PayoutsEnabled:  true, // stale: live says false
		Calendly:        models.CalendlyCredential{RefreshToken: "r"},
	}}

	r := &DefaultReporter{Cfg: fullConfig(), Stripe: stripe, Consultants: lookup, Logger: zap.NewNop()}
	report := r.Run(context.Background(), "m1")

	check := findCheck(t, report, "consultant:stripe_account")
	require.False(t, check.Passed)
	require.Contains(t, check.Message, "payouts=true")
	require.Contains(t, report.Recommendations, "Re-sync the consultant's payment capability flags")
	require.True(t, findCheck(t, report, "consultant:calendly").Passed)
}

func TestConsultantWithoutAccount(t *testing.T) {
	lookup := &fakeConsultantLookup{consultant: &models.Consultant{ID: "m1"}}
	r := &DefaultReporter{Cfg: fullConfig(), Stripe: &fakeStripeAccounts{}, Consultants: lookup, Logger: zap.NewNop()}

	report := r.Run(context.Background(), "m1")
	require.False(t, findCheck(t, report, "consultant:stripe_account").Passed)
	require.False(t, findCheck(t, report, "consultant:calendly").Passed)
}
