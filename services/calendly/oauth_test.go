package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExchangeThenRefreshYieldsLaterExpiry(t *testing.T) {
	var issued int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client-id", r.PostForm.Get("client_id"))
		require.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		issued++
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			require.Equal(t, "code-1", r.PostForm.Get("code"))
			require.Equal(t, "http://localhost/callback", r.PostForm.Get("redirect_uri"))
		case "refresh_token":
			require.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		default:
			t.Fatalf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-" + r.PostForm.Get("grant_type"),
			"refresh_token": "refresh-1",
			"expires_in":    7200,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, "", srv.URL)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	exchanged, err := c.ExchangeAuthorizationCode(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "access-authorization_code", exchanged.AccessToken)
	require.Equal(t, clock.Add(2*time.Hour), exchanged.ExpiresAt)

	// Refreshing later with the returned refresh token must push expiry out.
	clock = clock.Add(90 * time.Minute)
	refreshed, err := c.Refresh(context.Background(), exchanged.RefreshToken)
	require.NoError(t, err)
	require.True(t, refreshed.ExpiresAt.After(exchanged.ExpiresAt))
	require.Equal(t, 2, issued)
}

func TestTokenEndpointRateLimitIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, "", srv.URL)
	_, err := c.Refresh(context.Background(), "refresh-1")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestTokenEndpointRejectsRevokedGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, "", srv.URL)
	_, err := c.Refresh(context.Background(), "revoked")
	require.ErrorIs(t, err, ErrReauthorizationRequired)
}

func TestMissingClientCredentialsIsTerminal(t *testing.T) {
	c := newTestClient(t, "", "")
	c.clientID = ""

	_, err := c.Refresh(context.Background(), "refresh-1")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestAuthorizationURL(t *testing.T) {
	c := newTestClient(t, "", "")
	u := c.AuthorizationURL("state-123")
	require.Contains(t, u, c.authBase+"/oauth/authorize?")
	require.Contains(t, u, "client_id=client-id")
	require.Contains(t, u, "state=state-123")
	require.Contains(t, u, "response_type=code")
}
