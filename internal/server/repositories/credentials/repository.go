// Package credentials persists sealed credential entries, always scoped by
// the owning user.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/securevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Credential) error
	// Get returns common.ErrorNotFound when id does not exist for userID.
	Get(ctx context.Context, userID, id string) (*models.Credential, error)
	// GetForUpdate is Get holding a row lock until the enclosing transaction ends.
	GetForUpdate(ctx context.Context, userID, id string) (*models.Credential, error)
	List(ctx context.Context, userID string) ([]*models.Credential, error)
	// Update overwrites the mutable columns of an existing row.
	Update(ctx context.Context, c *models.Credential) error
	// Delete returns common.ErrorNotFound when nothing was removed.
	Delete(ctx context.Context, userID, id string) error
}
