package token

import (
	"context"
	"fmt"
	"time"

	consultantRepo "veridie/database/repository/consultant"
	"veridie/models"
	"veridie/services/calendly"

	"go.uber.org/zap"
)

// expirySkew is the safety buffer before the recorded expiry at which a token
// is treated as expired.
const expirySkew = 5 * time.Minute

// Service hands out a valid Calendly access token for a consultant, refreshing
// it against the provider only when needed.
type Service interface {
	EnsureValidToken(ctx context.Context, consultantID string) (string, error)
}

// DefaultTokenService implements Service.
type DefaultTokenService struct {
	Repo     consultantRepo.ConsultantRepository
	Calendly calendly.API
	Logger   *zap.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *DefaultTokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureValidToken returns the stored access token when it is still inside the
// validity window, otherwise refreshes against the provider. The rotated
// credential is persisted before the new token is returned, so a token that
// was never stored is never served.
func (s *DefaultTokenService) EnsureValidToken(ctx context.Context, consultantID string) (string, error) {
	return s.ensureWithin(ctx, consultantID, expirySkew)
}

// RefreshIfExpiringWithin rotates the credential when it expires inside the
// given horizon. Used by the background sweep, which refreshes earlier than
// the on-demand path.
func (s *DefaultTokenService) RefreshIfExpiringWithin(ctx context.Context, consultantID string, horizon time.Duration) error {
	_, err := s.ensureWithin(ctx, consultantID, horizon)
	return err
}

func (s *DefaultTokenService) ensureWithin(ctx context.Context, consultantID string, skew time.Duration) (string, error) {
	consultant, err := s.Repo.GetByID(consultantID)
	if err != nil {
		return "", fmt.Errorf("failed to load consultant %s: %w", consultantID, err)
	}

	cred := consultant.Calendly
	if cred.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	// Fresh token: no network call.
	if !cred.NeedsRefresh(s.now(), skew) {
		return cred.AccessToken, nil
	}

	grant, err := s.Calendly.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh calendly token for consultant %s: %w", consultantID, err)
	}

	rotated := models.CalendlyCredential{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    &grant.ExpiresAt,
		UserURI:      cred.UserURI,
	}
	if err := s.Repo.UpdateCredential(consultantID, rotated); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credential for consultant %s: %w", consultantID, err)
	}

	s.Logger.Info("Refreshed Calendly token",
		zap.String("consultantId", consultantID),
		zap.Time("expiresAt", grant.ExpiresAt))
	return grant.AccessToken, nil
}
