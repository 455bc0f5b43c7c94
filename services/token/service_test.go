package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"veridie/models"
	"veridie/services/calendly"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConsultantRepo struct {
	consultant       *models.Consultant
	getErr           error
	updatedCred      *models.CalendlyCredential
	updateCredErr    error
	updateCredCalled int
}

func (f *fakeConsultantRepo) GetByID(id string) (*models.Consultant, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c := *f.consultant
	return &c, nil
}

func (f *fakeConsultantRepo) GetService(consultantID, serviceID string) (*models.Service, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeConsultantRepo) Create(*models.Consultant) error { return nil }
func (f *fakeConsultantRepo) Delete(string) error             { return nil }

func (f *fakeConsultantRepo) UpdateCredential(consultantID string, cred models.CalendlyCredential) error {
	f.updateCredCalled++
	if f.updateCredErr != nil {
		return f.updateCredErr
	}
	f.updatedCred = &cred
	f.consultant.Calendly = cred
	return nil
}

func (f *fakeConsultantRepo) ClearCredential(string) error { return nil }
func (f *fakeConsultantRepo) UpdateEventTypeMapping(string, string, string) error {
	return nil
}
func (f *fakeConsultantRepo) SetPaymentAccount(string, string, bool, bool) error { return nil }
func (f *fakeConsultantRepo) ListExpiringCredentials(time.Time) ([]models.Consultant, error) {
	return nil, nil
}

type fakeCalendlyAPI struct {
	calendly.API
	refreshCalls int
	refreshFn    func(refreshToken string) (*models.TokenGrant, error)
}

func (f *fakeCalendlyAPI) Refresh(ctx context.Context, refreshToken string) (*models.TokenGrant, error) {
	f.refreshCalls++
	return f.refreshFn(refreshToken)
}

func testConsultant(expiresAt *time.Time) *models.Consultant {
	return &models.Consultant{
		ID: "m1",
		Calendly: models.CalendlyCredential{
			AccessToken:  "stored-access",
			RefreshToken: "stored-refresh",
			ExpiresAt:    expiresAt,
			UserURI:      "https://api.calendly.com/users/U1",
		},
	}
}

func TestEnsureValidTokenFreshTokenSkipsNetwork(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)
	repo := &fakeConsultantRepo{consultant: testConsultant(&expiry)}
	api := &fakeCalendlyAPI{refreshFn: func(string) (*models.TokenGrant, error) {
		t.Fatal("refresh must not be called for a fresh token")
		return nil, nil
	}}

	svc := &DefaultTokenService{Repo: repo, Calendly: api, Logger: zap.NewNop(), Now: func() time.Time { return now }}

	// Repeated calls inside the validity window are idempotent and never
	// touch the provider.
	for i := 0; i < 3; i++ {
		tok, err := svc.EnsureValidToken(context.Background(), "m1")
		require.NoError(t, err)
		require.Equal(t, "stored-access", tok)
	}
	require.Zero(t, api.refreshCalls)
	require.Zero(t, repo.updateCredCalled)
}

func TestEnsureValidTokenRefreshesInsideSkewWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(3 * time.Minute) // within the 5 minute buffer
	repo := &fakeConsultantRepo{consultant: testConsultant(&expiry)}

	newExpiry := now.Add(2 * time.Hour)
	api := &fakeCalendlyAPI{refreshFn: func(refreshToken string) (*models.TokenGrant, error) {
		require.Equal(t, "stored-refresh", refreshToken)
		return &models.TokenGrant{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresAt:    newExpiry,
		}, nil
	}}

	svc := &DefaultTokenService{Repo: repo, Calendly: api, Logger: zap.NewNop(), Now: func() time.Time { return now }}

	tok, err := svc.EnsureValidToken(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "new-access", tok)
	require.Equal(t, 1, api.refreshCalls)

	// The rotated credential was persisted, refresh token included, and
	// the user URI carried over.
	require.NotNil(t, repo.updatedCred)
	require.Equal(t, "new-refresh", repo.updatedCred.RefreshToken)
	require.Equal(t, newExpiry, *repo.updatedCred.ExpiresAt)
	require.Equal(t, "https://api.calendly.com/users/U1", repo.updatedCred.UserURI)
}

func TestEnsureValidTokenMissingExpiryForcesRefresh(t *testing.T) {
	repo := &fakeConsultantRepo{consultant: testConsultant(nil)}
	api := &fakeCalendlyAPI{refreshFn: func(string) (*models.TokenGrant, error) {
		return &models.TokenGrant{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}}

	svc := &DefaultTokenService{Repo: repo, Calendly: api, Logger: zap.NewNop()}
	tok, err := svc.EnsureValidToken(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "new-access", tok)
	require.Equal(t, 1, api.refreshCalls)
}

func TestEnsureValidTokenNoRefreshToken(t *testing.T) {
	repo := &fakeConsultantRepo{consultant: &models.Consultant{ID: "m1"}}
	svc := &DefaultTokenService{Repo: repo, Calendly: &fakeCalendlyAPI{}, Logger: zap.NewNop()}

	_, err := svc.EnsureValidToken(context.Background(), "m1")
	require.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestEnsureValidTokenRevokedGrantSurfaces(t *testing.T) {
	repo := &fakeConsultantRepo{consultant: testConsultant(nil)}
	api := &fakeCalendlyAPI{refreshFn: func(string) (*models.TokenGrant, error) {
		return nil, calendly.ErrReauthorizationRequired
	}}

	svc := &DefaultTokenService{Repo: repo, Calendly: api, Logger: zap.NewNop()}
	_, err := svc.EnsureValidToken(context.Background(), "m1")
	require.ErrorIs(t, err, calendly.ErrReauthorizationRequired)
	require.Zero(t, repo.updateCredCalled)
}

func TestEnsureValidTokenWriteFailureDoesNotServeToken(t *testing.T) {
	repo := &fakeConsultantRepo{
		consultant:    testConsultant(nil),
		updateCredErr: errors.New("write failed"),
	}
	api := &fakeCalendlyAPI{refreshFn: func(string) (*models.TokenGrant, error) {
		return &models.TokenGrant{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}}

	svc := &DefaultTokenService{Repo: repo, Calendly: api, Logger: zap.NewNop()}
	_, err := svc.EnsureValidToken(context.Background(), "m1")
	// Write-then-return: a token that could not be persisted is never served.
	require.Error(t, err)
}
