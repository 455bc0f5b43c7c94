package calendly

import (
	"context"

	"veridie/models"
)

// API is the surface of the Calendly client consumed by the token service, the
// booking orchestrator and the handlers.
type API interface {
	// AuthorizationURL builds the provider consent URL for the connect flow.
	AuthorizationURL(state string) string

	// ExchangeAuthorizationCode redeems the OAuth callback code for tokens.
	ExchangeAuthorizationCode(ctx context.Context, code string) (*models.TokenGrant, error)

	// Refresh exchanges a refresh token for a rotated grant.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenGrant, error)

	// Me resolves the authenticated Calendly account owner.
	Me(ctx context.Context, accessToken string) (*models.CalendlyUser, error)

	// ListEventTypes lists the bookable event types of a Calendly user.
	// Retried on rate limiting; userURI may be a bare id, a path, or a full URI.
	ListEventTypes(ctx context.Context, accessToken, userURI string) ([]models.EventType, error)

	// CreateEvent schedules a calendar event. Single attempt; the caller
	// decides whether a failure is fatal.
	CreateEvent(ctx context.Context, accessToken string, req models.CreateEventRequest) (*models.ScheduledEvent, error)

	// CreateWebhookSubscription registers a webhook for the connected account.
	CreateWebhookSubscription(ctx context.Context, accessToken, callbackURL, organization string) (*models.WebhookSubscription, error)
}
