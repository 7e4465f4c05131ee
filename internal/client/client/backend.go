package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/models"
)

// IdentityBackend authenticates accounts and owns the token pair.
type IdentityBackend interface {
	SignIn(ctx context.Context, email, secret string) (*models.Identity, error)
	SignUp(ctx context.Context, email, secret, displayName string) (*models.Identity, error)
	// SignOut forgets the local tokens and revokes the refresh token.
	SignOut(ctx context.Context) error
	// Resume restores a session from a persisted refresh token.
	Resume(ctx context.Context, refreshToken string) (*models.Identity, error)
	// RefreshToken returns the current refresh token, empty when signed out.
	RefreshToken() string
	// OnSessionInvalidated registers fn to run when the backend rejects the
	// session (the refresh token no longer works).
	OnSessionInvalidated(fn func()) (cancel func())
	// OnTokenRotated registers fn to run after a background refresh
	// replaced the refresh token.
	OnTokenRotated(fn func(refreshToken string)) (cancel func())
}

// VaultBackend stores the credential entries of the signed-in identity.
type VaultBackend interface {
	List(ctx context.Context) ([]*models.CredentialEntry, error)
	Get(ctx context.Context, id string) (*models.CredentialEntry, error)
	Push(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error)
	Update(ctx context.Context, id string, patch models.CredentialPatch) (*models.CredentialEntry, error)
	Remove(ctx context.Context, id string) error
	// Watch calls fn with the full entry set on every change until ctx is
	// done (returns nil) or the stream fails (returns the error).
	Watch(ctx context.Context, fn func([]*models.CredentialEntry)) error
	Export(ctx context.Context, passphrase string) (url string, expiresAt time.Time, err error)
}
