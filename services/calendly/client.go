package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"veridie/models"

	"go.uber.org/zap"
)

const (
	defaultAPIBase  = "https://api.calendly.com"
	defaultAuthBase = "https://auth.calendly.com"

	// maxListAttempts bounds the retry loop on the listing path. Attempt n
	// sleeps 2^n seconds before retrying.
	maxListAttempts = 3
)

// Client is the HTTP client for the Calendly REST and OAuth APIs.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	authBase     string
	clientID     string
	clientSecret string
	redirectURI  string
	logger       *zap.Logger

	// Injectable for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient builds a Calendly client with a bounded per-call timeout.
func NewClient(clientID, clientSecret, redirectURI string, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		apiBase:      defaultAPIBase,
		authBase:     defaultAuthBase,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		logger:       logger,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// AuthorizationURL builds the consent URL the frontend redirects consultants to.
func (c *Client) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.redirectURI)
	q.Set("state", state)
	return c.authBase + "/oauth/authorize?" + q.Encode()
}

// canonicalUserURI normalizes a stored user identifier into the provider's
// absolute-URI form. Accepts a bare id, a path-only value, or a full URI.
func (c *Client) canonicalUserURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	trimmed := strings.TrimPrefix(raw, "/")
	trimmed = strings.TrimPrefix(trimmed, "users/")
	return c.apiBase + "/users/" + trimmed
}

type eventTypeResource struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Duration      int    `json:"duration"`
	SchedulingURL string `json:"scheduling_url"`
	Active        bool   `json:"active"`
}

type eventTypesResponse struct {
	Collection []eventTypeResource `json:"collection"`
}

// ListEventTypes lists a user's event types, retrying on 429 with exponential
// backoff. Invoked interactively from the settings page, where a short delay
// beats a hard failure.
func (c *Client) ListEventTypes(ctx context.Context, accessToken, userURI string) ([]models.EventType, error) {
	endpoint := c.apiBase + "/event_types?user=" + url.QueryEscape(c.canonicalUserURI(userURI))

	var lastStatus int
	for attempt := 0; attempt < maxListAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(1<<attempt) * time.Second)
		}

		body, status, err := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
		if err != nil {
			return nil, err
		}
		lastStatus = status

		switch {
		case status == http.StatusOK:
			var parsed eventTypesResponse
			if err := json.Unmarshal(body, &parsed); err != nil {
				return nil, fmt.Errorf("failed to decode event types response: %w", err)
			}
			eventTypes := make([]models.EventType, 0, len(parsed.Collection))
			for _, et := range parsed.Collection {
				eventTypes = append(eventTypes, models.EventType{
					URI:           et.URI,
					Name:          et.Name,
					Duration:      et.Duration,
					SchedulingURL: et.SchedulingURL,
					Active:        et.Active,
				})
			}
			return eventTypes, nil
		case status == http.StatusUnauthorized:
			return nil, ErrReauthorizationRequired
		case status == http.StatusTooManyRequests:
			c.logger.Warn("Calendly rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Int("maxAttempts", maxListAttempts))
			continue
		default:
			return nil, fmt.Errorf("calendly event types request failed with status %d: %s", status, string(body))
		}
	}

	if lastStatus == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	return nil, fmt.Errorf("calendly event types request exhausted retries (last status %d)", lastStatus)
}

type createEventPayload struct {
	EventTypeURI string          `json:"event_type_uri"`
	StartTime    string          `json:"start_time"`
	EndTime      string          `json:"end_time"`
	Invitees     []inviteeRecord `json:"invitees"`
}

type inviteeRecord struct {
	Email               string            `json:"email"`
	Name                string            `json:"name"`
	QuestionsAndAnswers map[string]string `json:"questions_and_answers,omitempty"`
}

type scheduledEventResponse struct {
	Resource struct {
		URI       string    `json:"uri"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	} `json:"resource"`
}

// CreateEvent schedules a calendar event. Deliberately not retried: this runs
// inside payment confirmation, where a duplicate event is worse than a missing
// one and total latency must stay bounded.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, req models.CreateEventRequest) (*models.ScheduledEvent, error) {
	payload := createEventPayload{
		EventTypeURI: req.EventTypeURI,
		StartTime:    req.StartTime.UTC().Format(time.RFC3339),
		EndTime:      req.EndTime.UTC().Format(time.RFC3339),
		Invitees: []inviteeRecord{{
			Email:               req.Attendee.Email,
			Name:                req.Attendee.Name,
			QuestionsAndAnswers: req.Metadata,
		}},
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, c.apiBase+"/scheduled_events", accessToken, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrReauthorizationRequired
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("calendly event creation failed with status %d: %s", status, string(body))
	}

	var parsed scheduledEventResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled event response: %w", err)
	}
	return &models.ScheduledEvent{
		URI:       parsed.Resource.URI,
		StartTime: parsed.Resource.StartTime,
		EndTime:   parsed.Resource.EndTime,
	}, nil
}

type userResponse struct {
	Resource struct {
		URI           string `json:"uri"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		SchedulingURL string `json:"scheduling_url"`
	} `json:"resource"`
}

// Me returns the authenticated Calendly account owner.
func (c *Client) Me(ctx context.Context, accessToken string) (*models.CalendlyUser, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, c.apiBase+"/users/me", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrReauthorizationRequired
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("calendly users/me request failed with status %d: %s", status, string(body))
	}

	var parsed userResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode users/me response: %w", err)
	}
	return &models.CalendlyUser{
		URI:           parsed.Resource.URI,
		Name:          parsed.Resource.Name,
		Email:         parsed.Resource.Email,
		SchedulingURL: parsed.Resource.SchedulingURL,
	}, nil
}

type webhookSubscriptionResponse struct {
	Resource struct {
		URI         string `json:"uri"`
		CallbackURL string `json:"callback_url"`
		State       string `json:"state"`
	} `json:"resource"`
}

// CreateWebhookSubscription registers a webhook for invitee events on the
// connected account.
func (c *Client) CreateWebhookSubscription(ctx context.Context, accessToken, callbackURL, organization string) (*models.WebhookSubscription, error) {
	payload := map[string]interface{}{
		"url":          callbackURL,
		"events":       []string{"invitee.created", "invitee.canceled"},
		"organization": organization,
		"scope":        "organization",
	}
	body, status, err := c.doJSON(ctx, http.MethodPost, c.apiBase+"/webhook_subscriptions", accessToken, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrReauthorizationRequired
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("calendly webhook subscription failed with status %d: %s", status, string(body))
	}

	var parsed webhookSubscriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode webhook subscription response: %w", err)
	}
	return &models.WebhookSubscription{
		URI:         parsed.Resource.URI,
		CallbackURL: parsed.Resource.CallbackURL,
		State:       parsed.Resource.State,
	}, nil
}

// doJSON performs a single authenticated request and returns the raw body and
// status code. Transport-level failures come back as errors; HTTP status
// handling stays with the caller.
func (c *Client) doJSON(ctx context.Context, method, endpoint, accessToken string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calendly request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
