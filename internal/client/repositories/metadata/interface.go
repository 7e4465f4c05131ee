// Package metadata persists small client-side session values, such as the
// refresh token, in the local SQLite file.
package metadata

import (
	"context"
)

// RefreshTokenKey holds the token used to resume a session on start.
const RefreshTokenKey = "refresh_token"

// Repository is a key/value store. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
