package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"vinylshelf/internal/models"
	"vinylshelf/internal/services"
	"vinylshelf/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBackend keeps session rows in a map so the full login flow runs
// without a database.
type memoryBackend struct {
	rows map[string]*session.Row
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{rows: make(map[string]*session.Row)}
}

func (b *memoryBackend) Insert(_ context.Context, row *session.Row) error {
	if _, exists := b.rows[row.ID]; exists {
		return errors.New("duplicate key")
	}
	dup := *row
	b.rows[row.ID] = &dup
	return nil
}

func (b *memoryBackend) Update(_ context.Context, row *session.Row) error {
	if existing, exists := b.rows[row.ID]; exists {
		existing.Data = row.Data
		existing.ExpiresAt = row.ExpiresAt
		existing.RefreshedAt = row.RefreshedAt
	}
	return nil
}

func (b *memoryBackend) FindByID(_ context.Context, id string) (*session.Row, error) {
	row, exists := b.rows[id]
	if !exists {
		return nil, nil
	}
	dup := *row
	return &dup, nil
}

func (b *memoryBackend) DeleteByID(_ context.Context, id string) error {
	delete(b.rows, id)
	return nil
}

// fakeProviderClient answers exchange and userinfo calls locally.
type fakeProviderClient struct {
	exchangeCalls int
	info          models.UserInfo
}

func (f *fakeProviderClient) ExchangeCode(context.Context, string, string, string) (*models.TokenResponse, error) {
	f.exchangeCalls++
	return &models.TokenResponse{AccessToken: "at-1"}, nil
}

func (f *fakeProviderClient) FetchUserInfo(context.Context, string) (*models.UserInfo, error) {
	info := f.info
	return &info, nil
}

// fakeUserService upserts into a map keyed by subject.
type fakeUserService struct {
	bySid map[string]*models.User
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{bySid: make(map[string]*models.User)}
}

func (f *fakeUserService) ListUsers(context.Context) ([]models.User, error) { return nil, nil }
func (f *fakeUserService) GetUserByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, services.ErrNotFound
}
func (f *fakeUserService) UpdateUser(context.Context, uuid.UUID, models.UserForm) error { return nil }
func (f *fakeUserService) DeleteUser(context.Context, uuid.UUID) error                  { return nil }

func (f *fakeUserService) UpsertFromProvider(_ context.Context, info *models.UserInfo) (*models.User, error) {
	if existing, ok := f.bySid[info.Sub]; ok {
		existing.Email = info.Email
		existing.Name = info.Name
		return existing, nil
	}
	user := &models.User{ID: uuid.New(), Sid: info.Sub, Email: info.Email, Name: info.Name}
	f.bySid[info.Sub] = user
	return user, nil
}

type loginFlowFixture struct {
	router   *gin.Engine
	store    *session.Store
	provider *fakeProviderClient
	users    *fakeUserService
}

func newLoginFlowFixture(t *testing.T) *loginFlowFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metadata := &models.ProviderMetadata{
		AuthorizationEndpoint: "https://idp.example.com/authorize",
		TokenEndpoint:         "https://idp.example.com/token",
		UserinfoEndpoint:      "https://idp.example.com/userinfo",
		EndSessionEndpoint:    "https://idp.example.com/logout",
	}

	provider := &fakeProviderClient{
		info: models.UserInfo{Sub: "abc", Email: "ada@example.com", Name: "Ada"},
	}
	users := newFakeUserService()
	authService := services.NewAuthService(provider, users, nil, metadata,
		"client-1", "https://idp.example.com", "https://app.example.com/auth/callback")

	store := session.NewStore(newMemoryBackend(), session.NewLRUCache(10))

	router := gin.New()
	router.Use(session.Middleware(store, time.Hour, false))

	handler := NewAuthHandler(authService)
	router.GET(models.LoginPath, handler.Login)
	router.GET(models.CallbackPath, handler.Callback)
	router.GET(models.LogoutPath, handler.Logout)

	return &loginFlowFixture{router: router, store: store, provider: provider, users: users}
}

// startLogin performs the login redirect and returns the session cookie
// and the state parameter the provider would echo back.
func (f *loginFlowFixture) startLogin(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, models.LoginPath, nil)
	f.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusTemporaryRedirect, recorder.Code)

	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	var cookie *http.Cookie
	for _, c := range recorder.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must establish a session")
	return cookie, state
}

func TestLoginRedirectsToProvider(t *testing.T) {
	fixture := newLoginFlowFixture(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, models.LoginPath, nil)
	fixture.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusTemporaryRedirect, recorder.Code)

	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", location.Host)
	assert.Equal(t, "/authorize", location.Path)

	query := location.Query()
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.NotEmpty(t, query.Get("state"))
	assert.Empty(t, query.Get("code_verifier"))
}

func TestCallbackCompletesLogin(t *testing.T) {
	fixture := newLoginFlowFixture(t)
	cookie, state := fixture.startLogin(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet,
		models.CallbackPath+"?state="+url.QueryEscape(state)+"&code=code-1", nil)
	request.AddCookie(cookie)
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/", recorder.Header().Get("Location"))
	assert.Equal(t, 1, fixture.provider.exchangeCalls)

	record, err := fixture.store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.Data.User, "session must hold the authenticated user")
	assert.Equal(t, "abc", record.Data.User.Sid)
	assert.Nil(t, record.Data.Attempt, "the attempt is single-use")
}

func TestCallbackWithForgedStateRedirectsHome(t *testing.T) {
	fixture := newLoginFlowFixture(t)
	cookie, _ := fixture.startLogin(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet,
		models.CallbackPath+"?state=forged&code=code-1", nil)
	request.AddCookie(cookie)
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/", recorder.Header().Get("Location"))
	assert.Zero(t, fixture.provider.exchangeCalls, "forged state must never reach the provider")

	record, err := fixture.store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Nil(t, record.Data.User)
	assert.Nil(t, record.Data.Attempt, "the attempt is discarded even on failure")
}

func TestCallbackAttemptIsSingleUse(t *testing.T) {
	fixture := newLoginFlowFixture(t)
	cookie, state := fixture.startLogin(t)

	first := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet,
		models.CallbackPath+"?state="+url.QueryEscape(state)+"&code=code-1", nil)
	request.AddCookie(cookie)
	fixture.router.ServeHTTP(first, request)
	require.Equal(t, 1, fixture.provider.exchangeCalls)

	// Replaying the same callback finds no attempt and stays offline.
	second := httptest.NewRecorder()
	replay := httptest.NewRequest(http.MethodGet,
		models.CallbackPath+"?state="+url.QueryEscape(state)+"&code=code-1", nil)
	replay.AddCookie(cookie)
	fixture.router.ServeHTTP(second, replay)

	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, 1, fixture.provider.exchangeCalls, "a replayed callback must not trigger a second exchange")
}

func TestCallbackWithoutParamsRedirectsHome(t *testing.T) {
	fixture := newLoginFlowFixture(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, models.CallbackPath, nil)
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/", recorder.Header().Get("Location"))
	assert.Zero(t, fixture.provider.exchangeCalls)
}

func TestLogoutClearsSession(t *testing.T) {
	fixture := newLoginFlowFixture(t)
	cookie, state := fixture.startLogin(t)

	login := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet,
		models.CallbackPath+"?state="+url.QueryEscape(state)+"&code=code-1", nil)
	request.AddCookie(cookie)
	fixture.router.ServeHTTP(login, request)

	recorder := httptest.NewRecorder()
	logout := httptest.NewRequest(http.MethodGet, models.LogoutPath, nil)
	logout.AddCookie(cookie)
	fixture.router.ServeHTTP(recorder, logout)

	assert.Equal(t, http.StatusSeeOther, recorder.Code)

	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", location.Host)
	assert.Equal(t, "/logout", location.Path)
	assert.Equal(t, "client-1", location.Query().Get("client_id"))

	record, err := fixture.store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Nil(t, record, "logout must delete the session record")
}
