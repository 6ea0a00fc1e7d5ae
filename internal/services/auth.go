package services

import (
	"context"
	"fmt"
	"net/url"

	"vinylshelf/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// authService sequences the OAuth2 authorization-code flow: redirect out,
// validate the callback, exchange the code, resolve the local user.
type authService struct {
	provider    ProviderClient
	users       UserService
	keys        KeySource
	metadata    *models.ProviderMetadata
	clientID    string
	issuer      string
	redirectURI string
}

// NewAuthService wires the flow together. keys may be nil, in which case
// ID tokens returned by the provider are not verified.
func NewAuthService(provider ProviderClient, users UserService, keys KeySource, metadata *models.ProviderMetadata, clientID, issuer, redirectURI string) AuthService {
	return &authService{
		provider:    provider,
		users:       users,
		keys:        keys,
		metadata:    metadata,
		clientID:    clientID,
		issuer:      issuer,
		redirectURI: redirectURI,
	}
}

// NewAuthorization generates a login attempt and the authorization URL the
// browser is sent to.
func (s *authService) NewAuthorization() (*models.LoginAttempt, string, error) {
	params := models.NewAuthorizationParams(s.clientID, s.redirectURI)
	attempt := models.AttemptFromParams(params)

	authURL, err := buildAuthURL(s.metadata.AuthorizationEndpoint, params)
	if err != nil {
		return nil, "", err
	}

	logrus.WithField("redirect_uri", s.redirectURI).Info("Generated authorization URL")
	return &attempt, authURL, nil
}

// CompleteLogin validates the callback and turns it into a local user.
// The stored attempt is compared first; on a state mismatch the provider
// is never contacted.
func (s *authService) CompleteLogin(ctx context.Context, attempt *models.LoginAttempt, query models.CallbackQuery) (*models.User, error) {
	if attempt == nil {
		return nil, ErrNoLoginAttempt
	}
	if query.State != attempt.CSRF {
		logrus.WithField("state", query.State).Error("Callback state does not match stored CSRF token")
		return nil, ErrStateMismatch
	}

	tokens, err := s.provider.ExchangeCode(ctx, query.Code, attempt.Verifier, s.redirectURI)
	if err != nil {
		return nil, err
	}

	if tokens.IDToken != "" && s.keys != nil {
		if err := s.validateIDToken(tokens.IDToken); err != nil {
			return nil, err
		}
	}

	info, err := s.provider.FetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpsertFromProvider(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"sub":     user.Sid,
	}).Info("Login completed")
	return user, nil
}

// LogoutURL builds the provider's end-session redirect. A malformed
// end-session endpoint degrades to the home page.
func (s *authService) LogoutURL() string {
	endSession, err := url.Parse(s.metadata.EndSessionEndpoint)
	if err != nil || !endSession.IsAbs() {
		logrus.WithField("end_session_endpoint", s.metadata.EndSessionEndpoint).Error("Failed to build logout URL")
		return "/"
	}
	values := url.Values{}
	values.Set("client_id", s.clientID)
	endSession.RawQuery = values.Encode()
	return endSession.String()
}

// validateIDToken checks the ID token's signature against the provider's
// JWKS along with the issuer claim.
func (s *authService) validateIDToken(idToken string) error {
	token, err := jwt.ParseWithClaims(idToken, &jwt.RegisteredClaims{}, s.keys.Keyfunc,
		jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("ID token validation failed: %w", err)
	}
	claims := token.Claims.(*jwt.RegisteredClaims)
	logrus.WithField("sub", claims.Subject).Debug("ID token validated")
	return nil
}

// buildAuthURL appends the serialized parameters to the provider's
// authorization endpoint, which must be a valid absolute URL.
func buildAuthURL(authorizationEndpoint string, params models.AuthorizationParams) (string, error) {
	base, err := url.Parse(authorizationEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint %q: %w", authorizationEndpoint, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return "", fmt.Errorf("authorization endpoint %q is not an absolute URL", authorizationEndpoint)
	}
	base.RawQuery = params.Values().Encode()
	return base.String(), nil
}
