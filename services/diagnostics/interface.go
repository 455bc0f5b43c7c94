package diagnostics

import (
	"context"

	"veridie/models"
)

// Reporter produces the admin diagnostics report. Best effort: a failed check
// is recorded and the run continues.
type Reporter interface {
	// Run executes all checks. When consultantID is non-empty, per-consultant
	// consistency checks against the live payment provider are included.
	Run(ctx context.Context, consultantID string) *models.DiagnosticsReport
}

// AccountState is the subset of a live payment account compared against the
// stored consultant flags.
type AccountState struct {
	ChargesEnabled bool
	PayoutsEnabled bool
}

// StripeAccounts is the payment-provider surface used by the reporter.
type StripeAccounts interface {
	// CreateTestAccount creates a throwaway connected account to prove API
	// reachability; the reporter deletes it immediately.
	CreateTestAccount(ctx context.Context) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
	GetAccount(ctx context.Context, accountID string) (*AccountState, error)
}
