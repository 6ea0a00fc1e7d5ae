package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vinylshelf/internal/models"

	"github.com/sirupsen/logrus"
)

// providerClient implements ProviderClient against a discovered OIDC
// provider. A single failed call aborts the login attempt; there are no
// retries.
type providerClient struct {
	clientID     string
	clientSecret string
	metadata     *models.ProviderMetadata
	httpClient   *http.Client
}

// NewProviderClient creates a ProviderClient for the discovered provider.
func NewProviderClient(clientID, clientSecret string, metadata *models.ProviderMetadata) ProviderClient {
	return &providerClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		metadata:     metadata,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExchangeCode trades the authorization code for tokens at the provider's
// token endpoint, authenticating with HTTP Basic client credentials.
func (p *providerClient) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*models.TokenResponse, error) {
	logrus.WithFields(logrus.Fields{
		"token_endpoint": p.metadata.TokenEndpoint,
		"redirect_uri":   redirectURI,
	}).Info("Exchanging authorization code for tokens")

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code_verifier", codeVerifier)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.metadata.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange transport failure: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Token endpoint returned error")
		return nil, &ProviderError{Endpoint: p.metadata.TokenEndpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens models.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		logrus.WithError(err).Error("Failed to decode token response")
		return nil, &ProviderError{Endpoint: p.metadata.TokenEndpoint}
	}

	logrus.WithField("has_refresh_token", tokens.RefreshToken != "").Info("Token exchange succeeded")
	return &tokens, nil
}

// FetchUserInfo resolves the access token to the provider's view of the
// user.
func (p *providerClient) FetchUserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.metadata.UserinfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo transport failure: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Endpoint: p.metadata.UserinfoEndpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var info models.UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &ProviderError{Endpoint: p.metadata.UserinfoEndpoint}
	}

	logrus.WithFields(logrus.Fields{
		"sub":   info.Sub,
		"email": info.Email,
	}).Debug("Fetched user info from provider")
	return &info, nil
}
