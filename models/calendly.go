package models

import "time"

// EventType is a Calendly-defined bookable meeting template.
type EventType struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Duration      int    `json:"duration"` // minutes
	SchedulingURL string `json:"schedulingUrl"`
	Active        bool   `json:"active"`
}

// TokenGrant is the result of an OAuth code exchange or refresh.
type TokenGrant struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// CalendlyUser is the authenticated Calendly account owner.
type CalendlyUser struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	SchedulingURL string `json:"schedulingUrl"`
}

// ScheduledEvent is a calendar event created for a confirmed booking.
type ScheduledEvent struct {
	URI       string    `json:"uri"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// CreateEventRequest carries the inputs for scheduling a calendar event.
type CreateEventRequest struct {
	EventTypeURI string            `json:"eventTypeUri"`
	StartTime    time.Time         `json:"startTime"`
	EndTime      time.Time         `json:"endTime"`
	Attendee     Attendee          `json:"attendee"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// WebhookSubscription is a registered Calendly webhook.
type WebhookSubscription struct {
	URI         string `json:"uri"`
	CallbackURL string `json:"callbackUrl"`
	State       string `json:"state"`
}
