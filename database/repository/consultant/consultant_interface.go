package consultantRepo

import (
	"time"

	"veridie/models"
)

// ConsultantRepository defines persistence operations for consultants and
// their Calendly credentials.
type ConsultantRepository interface {
	GetByID(id string) (*models.Consultant, error)
	GetService(consultantID, serviceID string) (*models.Service, error)
	Create(consultant *models.Consultant) error
	Delete(id string) error

	// UpdateCredential replaces all three token fields in one write so a
	// partially rotated credential is never observable.
	UpdateCredential(consultantID string, cred models.CalendlyCredential) error
	ClearCredential(consultantID string) error

	UpdateEventTypeMapping(consultantID, serviceID, eventTypeURI string) error
	SetPaymentAccount(consultantID, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error

	// ListExpiringCredentials returns consultants whose access token expires
	// before the cutoff (or has no recorded expiry) and who hold a refresh
	// token. Used by the background refresh sweep.
	ListExpiringCredentials(cutoff time.Time) ([]models.Consultant, error)
}
