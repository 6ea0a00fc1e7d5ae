package services

import (
	"context"

	"vinylshelf/internal/models"

	"github.com/google/uuid"
)

// AuthService drives the login/callback/logout flow against the identity
// provider.
type AuthService interface {
	// NewAuthorization generates a fresh login attempt and the provider
	// redirect URL that goes with it.
	NewAuthorization() (*models.LoginAttempt, string, error)
	// CompleteLogin validates the callback against the stored attempt,
	// exchanges the code and resolves the local user. The provider is
	// never contacted when the state comparison fails.
	CompleteLogin(ctx context.Context, attempt *models.LoginAttempt, query models.CallbackQuery) (*models.User, error)
	// LogoutURL returns the provider's end-session redirect target.
	LogoutURL() string
}

// ProviderClient talks to the identity provider's token and userinfo
// endpoints.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*models.TokenResponse, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error)
}

// UserService manages local user records.
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, form models.UserForm) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	// UpsertFromProvider inserts a user keyed on the provider subject, or
	// refreshes email and name when the subject already exists. Atomic
	// with respect to concurrent callers.
	UpsertFromProvider(ctx context.Context, info *models.UserInfo) (*models.User, error)
}

// AlbumService manages album records. All reads are scoped to the owning
// user.
type AlbumService interface {
	ListAlbums(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error)
	GetAlbumByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Album, error)
	CreateAlbum(ctx context.Context, ownerID uuid.UUID, form models.AlbumForm) (*models.Album, error)
	UpdateAlbum(ctx context.Context, ownerID, id uuid.UUID, form models.AlbumForm) error
	DeleteAlbum(ctx context.Context, id uuid.UUID) error
}
