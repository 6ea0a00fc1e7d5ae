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

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/sirupsen/logrus"
)

// DiscoverProvider fetches the OIDC discovery document from the issuer's
// well-known location. Called once at startup; a failure here is a
// configuration error and fatal.
func DiscoverProvider(ctx context.Context, issuerURL string) (*models.ProviderMetadata, error) {
	trimmed := strings.TrimSuffix(issuerURL, "/")
	wellKnown, err := url.Parse(trimmed + "/.well-known/openid-configuration")
	if err != nil || !wellKnown.IsAbs() || wellKnown.Host == "" {
		return nil, fmt.Errorf("invalid issuer URL %q", issuerURL)
	}

	logrus.WithField("url", wellKnown.String()).Info("Fetching OIDC discovery document")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Endpoint: wellKnown.String(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var metadata models.ProviderMetadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"authorization_endpoint": metadata.AuthorizationEndpoint,
		"token_endpoint":         metadata.TokenEndpoint,
	}).Info("OIDC discovery document loaded")

	return &metadata, nil
}

// KeySource resolves the verification key for an ID token.
type KeySource interface {
	Keyfunc(token *jwt.Token) (interface{}, error)
}

// jwksKeySource holds the provider's signing keys fetched from jwks_uri.
type jwksKeySource struct {
	set jwk.Set
}

// FetchSigningKeys downloads the provider's JWKS and keeps the signature
// keys for later ID token verification.
func FetchSigningKeys(ctx context.Context, jwksURI string) (KeySource, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	logrus.WithField("jwks_uri", jwksURI).Info("Fetching provider JWKS")

	set, err := jwk.Fetch(fetchCtx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("JWKS at %s contains no keys", jwksURI)
	}

	logrus.WithField("key_count", set.Len()).Info("Provider JWKS loaded")
	return &jwksKeySource{set: set}, nil
}

// Keyfunc looks up the key matching the token's kid header, falling back
// to the first signature key in the set.
func (s *jwksKeySource) Keyfunc(token *jwt.Token) (interface{}, error) {
	if kid, ok := token.Header["kid"].(string); ok {
		if key, found := s.set.LookupKeyID(kid); found {
			return rawKey(key)
		}
	}
	for i := 0; i < s.set.Len(); i++ {
		key, ok := s.set.Key(i)
		if !ok {
			continue
		}
		if key.KeyUsage() == "" || key.KeyUsage() == string(jwk.ForSignature) {
			return rawKey(key)
		}
	}
	return nil, fmt.Errorf("no signature key available for token")
}

func rawKey(key jwk.Key) (interface{}, error) {
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to materialize JWK: %w", err)
	}
	return raw, nil
}
