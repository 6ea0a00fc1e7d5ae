package models

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"

	"github.com/google/uuid"
)

// Fixed application routes for the OAuth2 flow.
const (
	LoginPath    = "/auth/login"
	LogoutPath   = "/auth/logout"
	CallbackPath = "/auth/callback"
)

// Audience requested from the identity provider.
const Audience = "vinylshelf"

// Scope requested on every authorization; offline_access asks for a refresh token.
const Scope = "offline_access openid email profile"

// ProviderMetadata is the subset of the OIDC discovery document the
// application needs. Fetched once at startup and immutable afterwards.
type ProviderMetadata struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// TokenResponse is the provider's answer to a successful code exchange.
// It lives for the duration of one callback and is never persisted.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// UserInfo is the payload of the provider's userinfo endpoint.
type UserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Picture           string `json:"picture,omitempty"`
	Locale            string `json:"locale,omitempty"`
}

// CallbackQuery carries the query parameters the provider appends when
// redirecting back to CallbackPath.
type CallbackQuery struct {
	State string `form:"state" binding:"required"`
	Code  string `form:"code" binding:"required"`
}

// AuthorizationParams is the full parameter set serialized onto the
// provider's authorization endpoint. The code verifier never leaves the
// process; only its S256 challenge is sent.
type AuthorizationParams struct {
	ClientID            string
	RedirectURI         string
	State               string
	Audience            string
	ResponseMode        string
	ResponseType        string
	Scope               string
	CodeVerifier        string
	CodeChallenge       string
	CodeChallengeMethod string
}

// LoginAttempt is the per-login state held in the session between the
// redirect to the provider and the callback. Consumed exactly once.
type LoginAttempt struct {
	Verifier string `json:"pkce"`
	CSRF     string `json:"csrf"`
}

// NewAuthorizationParams generates a fresh PKCE verifier/challenge pair and
// CSRF state and combines them with the client configuration.
func NewAuthorizationParams(clientID, redirectURI string) AuthorizationParams {
	verifier := generateVerifier()
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	return AuthorizationParams{
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		State:               uuid.NewString(),
		Audience:            Audience,
		ResponseMode:        "query",
		ResponseType:        "code",
		Scope:               Scope,
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
	}
}

// AttemptFromParams extracts the single-use state that must survive until
// the callback.
func AttemptFromParams(params AuthorizationParams) LoginAttempt {
	return LoginAttempt{
		Verifier: params.CodeVerifier,
		CSRF:     params.State,
	}
}

// Values serializes the params as a query string, omitting the verifier.
func (p AuthorizationParams) Values() url.Values {
	values := url.Values{}
	values.Set("client_id", p.ClientID)
	values.Set("redirect_uri", p.RedirectURI)
	values.Set("state", p.State)
	values.Set("audience", p.Audience)
	values.Set("response_mode", p.ResponseMode)
	values.Set("response_type", p.ResponseType)
	values.Set("scope", p.Scope)
	values.Set("code_challenge", p.CodeChallenge)
	values.Set("code_challenge_method", p.CodeChallengeMethod)
	return values
}

// generateVerifier returns a fresh high-entropy PKCE verifier.
func generateVerifier() string {
	return uuid.NewString() + "-" + uuid.NewString()
}
