package models

import "time"

// CalendlyCredential holds the OAuth tokens issued for a consultant's Calendly
// account. Tokens are written only by the OAuth callback and the token refresh
// service.
type CalendlyCredential struct {
	AccessToken  string     `bson:"access_token" json:"-"`
	RefreshToken string     `bson:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	UserURI      string     `bson:"user_uri,omitempty" json:"userUri,omitempty"`
}

// Connected reports whether the consultant has linked a Calendly account.
func (c CalendlyCredential) Connected() bool {
	return c.RefreshToken != ""
}

// NeedsRefresh reports whether the access token must be refreshed before use.
// A missing expiry means the credential was never validated and forces a refresh.
func (c CalendlyCredential) NeedsRefresh(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Sub(now) < skew
}

// Service is a bookable offering listed by a consultant. EventTypeURI, when set,
// overrides the consultant's default Calendly event type for this service.
type Service struct {
	ID           string  `bson:"id" json:"id"`
	Title        string  `bson:"title" json:"title"`
	Price        float64 `bson:"price" json:"price"`
	EventTypeURI string  `bson:"event_type_uri,omitempty" json:"eventTypeUri,omitempty"`
}

// Consultant represents a marketplace seller (college-admissions mentor).
type Consultant struct {
	ID                  string             `bson:"id" json:"id"`
	Name                string             `bson:"name" json:"name"`
	Email               string             `bson:"email" json:"email"`
	Services            []Service          `bson:"services,omitempty" json:"services,omitempty"`
	Calendly            CalendlyCredential `bson:"calendly" json:"calendly"`
	DefaultEventTypeURI string             `bson:"default_event_type_uri,omitempty" json:"defaultEventTypeUri,omitempty"`
	StripeAccountID     string             `bson:"stripe_account_id,omitempty" json:"stripeAccountId,omitempty"`
	ChargesEnabled      bool               `bson:"charges_enabled" json:"chargesEnabled"`
	PayoutsEnabled      bool               `bson:"payouts_enabled" json:"payoutsEnabled"`
	CreatedAt           time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updatedAt"`
}

// EventTypeFor selects the Calendly event type for a booked service, preferring
// the service-level mapping over the consultant default. Exactly one mapping is
// selected; an empty result means scheduling is not configured.
func (c *Consultant) EventTypeFor(serviceID string) string {
	for _, svc := range c.Services {
		if svc.ID == serviceID && svc.EventTypeURI != "" {
			return svc.EventTypeURI
		}
	}
	return c.DefaultEventTypeURI
}
