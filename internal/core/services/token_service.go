package services

import (
	"fmt"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/platform/config"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/utils"
)

const reauthIssuerSuffix = "/reauth"

// tokenService mints access tokens and the short-lived re-authentication
// tokens required before highly privileged actions.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// IssueAccessToken mints the bearer token carried on every API call.
func (s *tokenService) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	return utils.GenerateJWT(user.UserID, string(user.Role), s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTExpiryDuration)
}

// IssueReauthToken mints the proof-of-recent-password-confirmation token.
// It is signed with a separate secret and a distinct issuer so an access
// token can never be replayed as one.
func (s *tokenService) IssueReauthToken(userID string) (string, time.Time, error) {
	return utils.GenerateJWT(userID, "", s.cfg.ReauthTokenSecret, s.cfg.JWTIssuer+reauthIssuerSuffix, s.cfg.ReauthTokenExpiryDuration)
}

// ValidateReauthToken confirms the token is valid, unexpired and was minted
// for the given user.
func (s *tokenService) ValidateReauthToken(token string, userID string) error {
	claims, err := utils.ParseAndValidateJWT(token, s.cfg.ReauthTokenSecret)
	if err != nil {
		return fmt.Errorf("%w: invalid re-authentication token", apperrors.ErrUnauthorized)
	}
	if claims.Subject != userID || claims.Issuer != s.cfg.JWTIssuer+reauthIssuerSuffix {
		return fmt.Errorf("%w: re-authentication token does not match actor", apperrors.ErrUnauthorized)
	}
	return nil
}
