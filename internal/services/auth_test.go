package services

import (
	"context"
	"net/url"
	"testing"

	"vinylshelf/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProviderClient records calls and returns canned responses.
type fakeProviderClient struct {
	exchangeCalls int
	userinfoCalls int

	lastCode        string
	lastVerifier    string
	lastRedirectURI string
	lastAccessToken string
	exchangeErr     error
	userinfoErr     error
	tokens          models.TokenResponse
	info            models.UserInfo
}

func (f *fakeProviderClient) ExchangeCode(_ context.Context, code, codeVerifier, redirectURI string) (*models.TokenResponse, error) {
	f.exchangeCalls++
	f.lastCode = code
	f.lastVerifier = codeVerifier
	f.lastRedirectURI = redirectURI
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	tokens := f.tokens
	return &tokens, nil
}

func (f *fakeProviderClient) FetchUserInfo(_ context.Context, accessToken string) (*models.UserInfo, error) {
	f.userinfoCalls++
	f.lastAccessToken = accessToken
	if f.userinfoErr != nil {
		return nil, f.userinfoErr
	}
	info := f.info
	return &info, nil
}

// fakeUserService upserts into a map keyed by provider subject, handing
// out stable IDs like the real database does.
type fakeUserService struct {
	upsertCalls int
	bySid       map[string]*models.User
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{bySid: make(map[string]*models.User)}
}

func (f *fakeUserService) ListUsers(context.Context) ([]models.User, error) { return nil, nil }
func (f *fakeUserService) GetUserByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, ErrNotFound
}
func (f *fakeUserService) UpdateUser(context.Context, uuid.UUID, models.UserForm) error { return nil }
func (f *fakeUserService) DeleteUser(context.Context, uuid.UUID) error                  { return nil }

func (f *fakeUserService) UpsertFromProvider(_ context.Context, info *models.UserInfo) (*models.User, error) {
	f.upsertCalls++
	if existing, ok := f.bySid[info.Sub]; ok {
		existing.Email = info.Email
		existing.Name = info.Name
		return existing, nil
	}
	user := &models.User{ID: uuid.New(), Sid: info.Sub, Email: info.Email, Name: info.Name}
	f.bySid[info.Sub] = user
	return user, nil
}

func testMetadata() *models.ProviderMetadata {
	return &models.ProviderMetadata{
		AuthorizationEndpoint: "https://idp.example.com/authorize",
		TokenEndpoint:         "https://idp.example.com/token",
		UserinfoEndpoint:      "https://idp.example.com/userinfo",
		EndSessionEndpoint:    "https://idp.example.com/logout",
	}
}

func newTestAuthService(provider ProviderClient, users UserService) AuthService {
	return NewAuthService(provider, users, nil, testMetadata(),
		"client-1", "https://idp.example.com", "https://app.example.com/auth/callback")
}

func TestNewAuthorizationBuildsProviderURL(t *testing.T) {
	svc := newTestAuthService(&fakeProviderClient{}, newFakeUserService())

	attempt, authURL, err := svc.NewAuthorization()
	require.NoError(t, err)
	require.NotNil(t, attempt)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", parsed.Host)
	assert.Equal(t, "/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, attempt.CSRF, query.Get("state"))
	assert.Empty(t, query.Get("code_verifier"))
	assert.NotEmpty(t, attempt.Verifier)
}

func TestNewAuthorizationRejectsRelativeEndpoint(t *testing.T) {
	metadata := testMetadata()
	metadata.AuthorizationEndpoint = "/authorize"
	svc := NewAuthService(&fakeProviderClient{}, newFakeUserService(), nil, metadata,
		"client-1", "https://idp.example.com", "https://app.example.com/auth/callback")

	_, _, err := svc.NewAuthorization()
	assert.Error(t, err)
}

func TestCompleteLoginHappyPath(t *testing.T) {
	provider := &fakeProviderClient{
		tokens: models.TokenResponse{AccessToken: "at-1"},
		info:   models.UserInfo{Sub: "abc", Email: "ada@example.com", Name: "Ada"},
	}
	users := newFakeUserService()
	svc := newTestAuthService(provider, users)

	attempt := &models.LoginAttempt{Verifier: "verifier-1", CSRF: "state-1"}
	user, err := svc.CompleteLogin(context.Background(), attempt,
		models.CallbackQuery{State: "state-1", Code: "code-1"})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "abc", user.Sid)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "code-1", provider.lastCode)
	assert.Equal(t, "verifier-1", provider.lastVerifier)
	assert.Equal(t, "https://app.example.com/auth/callback", provider.lastRedirectURI)
	assert.Equal(t, "at-1", provider.lastAccessToken)
	assert.Equal(t, 1, users.upsertCalls)
}

func TestCompleteLoginWithoutAttempt(t *testing.T) {
	provider := &fakeProviderClient{}
	svc := newTestAuthService(provider, newFakeUserService())

	_, err := svc.CompleteLogin(context.Background(), nil,
		models.CallbackQuery{State: "state-1", Code: "code-1"})
	assert.ErrorIs(t, err, ErrNoLoginAttempt)
	assert.Zero(t, provider.exchangeCalls)
}

func TestCompleteLoginStateMismatchSkipsProvider(t *testing.T) {
	provider := &fakeProviderClient{}
	svc := newTestAuthService(provider, newFakeUserService())

	attempt := &models.LoginAttempt{Verifier: "verifier-1", CSRF: "state-1"}
	_, err := svc.CompleteLogin(context.Background(), attempt,
		models.CallbackQuery{State: "forged", Code: "code-1"})

	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.Zero(t, provider.exchangeCalls, "the provider must not be contacted on a state mismatch")
	assert.Zero(t, provider.userinfoCalls)
}

func TestCompleteLoginExchangeFailure(t *testing.T) {
	provider := &fakeProviderClient{
		exchangeErr: &ProviderError{Endpoint: "https://idp.example.com/token", StatusCode: 400, Body: "invalid_grant"},
	}
	svc := newTestAuthService(provider, newFakeUserService())

	attempt := &models.LoginAttempt{Verifier: "verifier-1", CSRF: "state-1"}
	_, err := svc.CompleteLogin(context.Background(), attempt,
		models.CallbackQuery{State: "state-1", Code: "code-1"})

	require.Error(t, err)
	var providerErr *ProviderError
	assert.ErrorAs(t, err, &providerErr)
	assert.Zero(t, provider.userinfoCalls, "no userinfo call after a failed exchange")
}

func TestCompleteLoginRepeatedSubjectKeepsIdentity(t *testing.T) {
	provider := &fakeProviderClient{
		tokens: models.TokenResponse{AccessToken: "at-1"},
		info:   models.UserInfo{Sub: "abc", Email: "ada@example.com", Name: "Ada"},
	}
	users := newFakeUserService()
	svc := newTestAuthService(provider, users)

	attempt := &models.LoginAttempt{Verifier: "v1", CSRF: "s1"}
	first, err := svc.CompleteLogin(context.Background(), attempt,
		models.CallbackQuery{State: "s1", Code: "c1"})
	require.NoError(t, err)

	provider.info = models.UserInfo{Sub: "abc", Email: "ada@new.example.com", Name: "Ada L."}
	attempt = &models.LoginAttempt{Verifier: "v2", CSRF: "s2"}
	second, err := svc.CompleteLogin(context.Background(), attempt,
		models.CallbackQuery{State: "s2", Code: "c2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same subject must resolve to the same local user")
	assert.Equal(t, "ada@new.example.com", second.Email)
	assert.Equal(t, 2, users.upsertCalls)
	assert.Len(t, users.bySid, 1)
}

func TestLogoutURL(t *testing.T) {
	svc := newTestAuthService(&fakeProviderClient{}, newFakeUserService())

	logoutURL := svc.LogoutURL()
	parsed, err := url.Parse(logoutURL)
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", parsed.Host)
	assert.Equal(t, "/logout", parsed.Path)
	assert.Equal(t, "client-1", parsed.Query().Get("client_id"))
}

func TestLogoutURLDegradesToHome(t *testing.T) {
	metadata := testMetadata()
	metadata.EndSessionEndpoint = ""
	svc := NewAuthService(&fakeProviderClient{}, newFakeUserService(), nil, metadata,
		"client-1", "https://idp.example.com", "https://app.example.com/auth/callback")

	assert.Equal(t, "/", svc.LogoutURL())
}
