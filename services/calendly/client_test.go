package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"veridie/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, apiURL, authURL string) *Client {
	t.Helper()
	c := NewClient("client-id", "client-secret", "http://localhost/callback", zap.NewNop())
	if apiURL != "" {
		c.apiBase = apiURL
	}
	if authURL != "" {
		c.authBase = authURL
	}
	c.sleep = func(time.Duration) {}
	return c
}

func TestListEventTypesRetriesOnRateLimit(t *testing.T) {
	var calls int32
	var slept []time.Duration

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"collection": []map[string]interface{}{
				{"uri": "https://api.calendly.com/event_types/ET1", "name": "Intro Call", "duration": 30, "active": true},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	eventTypes, err := c.ListEventTypes(context.Background(), "tok", "https://api.calendly.com/users/U1")
	require.NoError(t, err)
	require.Len(t, eventTypes, 1)
	require.Equal(t, "Intro Call", eventTypes[0].Name)

	// Two 429s then a 200: exactly three requests, two backoff sleeps of
	// 2^1 and 2^2 seconds.
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestListEventTypesExhaustsRetryBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.ListEventTypes(context.Background(), "tok", "U1")
	require.ErrorIs(t, err, ErrRateLimited)
	require.EqualValues(t, maxListAttempts, atomic.LoadInt32(&calls))
}

func TestListEventTypesUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.ListEventTypes(context.Background(), "tok", "U1")
	require.ErrorIs(t, err, ErrReauthorizationRequired)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCanonicalUserURI(t *testing.T) {
	c := newTestClient(t, "", "")
	c.apiBase = "https://api.calendly.com"

	cases := map[string]string{
		"ABC123":                              "https://api.calendly.com/users/ABC123",
		"users/ABC123":                        "https://api.calendly.com/users/ABC123",
		"/users/ABC123":                       "https://api.calendly.com/users/ABC123",
		"https://api.calendly.com/users/XYZ":  "https://api.calendly.com/users/XYZ",
		" ABC123 ":                            "https://api.calendly.com/users/ABC123",
		"":                                    "",
	}
	for input, want := range cases {
		require.Equal(t, want, c.canonicalUserURI(input), "input %q", input)
	}
}

func TestCreateEventSingleAttempt(t *testing.T) {
	var calls int32
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, http.MethodPost, r.Method)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "https://api.calendly.com/event_types/ET1", payload["event_type_uri"])
		require.Equal(t, "2025-06-01T14:00:00Z", payload["start_time"])

		invitees := payload["invitees"].([]interface{})
		require.Len(t, invitees, 1)
		invitee := invitees[0].(map[string]interface{})
		require.Equal(t, "a@b.com", invitee["email"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resource": map[string]interface{}{
				"uri":        "https://api.calendly.com/scheduled_events/EV1",
				"start_time": "2025-06-01T14:00:00Z",
				"end_time":   "2025-06-01T15:00:00Z",
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	event, err := c.CreateEvent(context.Background(), "tok", models.CreateEventRequest{
		EventTypeURI: "https://api.calendly.com/event_types/ET1",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Attendee:     models.Attendee{Name: "A B", Email: "a@b.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "https://api.calendly.com/scheduled_events/EV1", event.URI)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCreateEventSurfacesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.CreateEvent(context.Background(), "tok", models.CreateEventRequest{})
	require.Error(t, err)
	// No retry on the event-creation path.
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resource": map[string]interface{}{
				"uri":   "https://api.calendly.com/users/U1",
				"name":  "Mentor One",
				"email": "m1@veridie.com",
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	user, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "https://api.calendly.com/users/U1", user.URI)
	require.Equal(t, "m1@veridie.com", user.Email)
}
