package diagnostics

import (
	"context"
	"fmt"
	"time"

	"veridie/config"
	consultantRepo "veridie/database/repository/consultant"
	"veridie/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var requiredCollections = []string{"consultants", "bookings", "guest_bookings", "users"}

// DefaultReporter implements Reporter.
type DefaultReporter struct {
	Cfg         config.Config
	DB          *mongo.Database
	Stripe      StripeAccounts
	Consultants consultantRepo.ConsultantRepository
	Logger      *zap.Logger
}

// Run executes every check and aggregates the results. No check aborts the
// run; remediation hints are collected alongside.
func (r *DefaultReporter) Run(ctx context.Context, consultantID string) *models.DiagnosticsReport {
	report := &models.DiagnosticsReport{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now(),
	}

	r.checkConfig(report)
	r.checkSchema(ctx, report)
	r.checkStripeRoundTrip(ctx, report)
	if consultantID != "" {
		r.checkConsultantConsistency(ctx, consultantID, report)
	}

	return report
}

func (r *DefaultReporter) addCheck(report *models.DiagnosticsReport, name string, passed bool, message, recommendation string) {
	report.Checks = append(report.Checks, models.CheckResult{Name: name, Passed: passed, Message: message})
	if !passed && recommendation != "" {
		report.Recommendations = append(report.Recommendations, recommendation)
	}
}

func (r *DefaultReporter) checkConfig(report *models.DiagnosticsReport) {
	required := map[string]string{
		"STRIPE_SECRET_KEY":      r.Cfg.StripeKey,
		"CALENDLY_CLIENT_ID":     r.Cfg.CalendlyClientID,
		"CALENDLY_CLIENT_SECRET": r.Cfg.CalendlyClientSecret,
		"CALENDLY_REDIRECT_URI":  r.Cfg.CalendlyRedirectURI,
		"DATABASE_URL":           r.Cfg.DatabaseURL,
		"ADMIN_JWT_SECRET":       r.Cfg.AdminJWTSecret,
	}
	for name, value := range required {
		passed := value != ""
		message := "set"
		if !passed {
			message = "missing"
		}
		r.addCheck(report, "env:"+name, passed, message, "Set the "+name+" environment variable")
	}
}

func (r *DefaultReporter) checkSchema(ctx context.Context, report *models.DiagnosticsReport) {
	if r.DB == nil {
		r.addCheck(report, "schema:connection", false, "database handle unavailable",
			"Verify DATABASE_URL and restart the service")
		return
	}

	names, err := r.DB.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		r.addCheck(report, "schema:connection", false, err.Error(),
			"Verify the MongoDB deployment is reachable")
		return
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}
	for _, coll := range requiredCollections {
		r.addCheck(report, "schema:"+coll, existing[coll],
			collectionMessage(existing[coll]),
			fmt.Sprintf("Create the %q collection (it is created on first write)", coll))
	}
}

func collectionMessage(exists bool) string {
	if exists {
		return "present"
	}
	return "missing"
}

func (r *DefaultReporter) checkStripeRoundTrip(ctx context.Context, report *models.DiagnosticsReport) {
	if r.Stripe == nil {
		r.addCheck(report, "stripe:roundtrip", false, "stripe client unavailable",
			"Set STRIPE_SECRET_KEY")
		return
	}

	accountID, err := r.Stripe.CreateTestAccount(ctx)
	if err != nil {
		r.addCheck(report, "stripe:roundtrip", false, err.Error(),
			"Verify the Stripe secret key and Connect settings")
		return
	}
	// Clean up immediately; a leak here only costs dashboard noise.
	if err := r.Stripe.DeleteAccount(ctx, accountID); err != nil {
		r.Logger.Warn("Failed to delete diagnostics test account",
			zap.String("accountId", accountID), zap.Error(err))
	}
	r.addCheck(report, "stripe:roundtrip", true, "created and deleted test account", "")
}

func (r *DefaultReporter) checkConsultantConsistency(ctx context.Context, consultantID string, report *models.DiagnosticsReport) {
	consultant, err := r.Consultants.GetByID(consultantID)
	if err != nil {
		r.addCheck(report, "consultant:lookup", false, err.Error(),
			"Verify the consultant id supplied to diagnostics")
		return
	}
	r.addCheck(report, "consultant:lookup", true, "found", "")

	r.addCheck(report, "consultant:calendly", consultant.Calendly.Connected(),
		calendlyMessage(consultant.Calendly.Connected()),
		"Ask the consultant to connect their Calendly account")

	if consultant.StripeAccountID == "" {
		r.addCheck(report, "consultant:stripe_account", false, "no connected account",
			"Ask the consultant to complete Stripe onboarding")
		return
	}
	if r.Stripe == nil {
		r.addCheck(report, "consultant:stripe_account", false, "stripe client unavailable", "Set STRIPE_SECRET_KEY")
		return
	}

	live, err := r.Stripe.GetAccount(ctx, consultant.StripeAccountID)
	if err != nil {
		r.addCheck(report, "consultant:stripe_account", false, err.Error(),
			"Verify the connected account still exists")
		return
	}
	consistent := live.ChargesEnabled == consultant.ChargesEnabled && live.PayoutsEnabled == consultant.PayoutsEnabled
	message := "stored capability flags match the live account"
	if !consistent {
		message = fmt.Sprintf("stored charges=%t payouts=%t but live charges=%t payouts=%t",
			consultant.ChargesEnabled, consultant.PayoutsEnabled, live.ChargesEnabled, live.PayoutsEnabled)
	}
	r.addCheck(report, "consultant:stripe_account", consistent, message,
		"Re-sync the consultant's payment capability flags")
}

func calendlyMessage(connected bool) string {
	if connected {
		return "connected"
	}
	return "not connected"
}
