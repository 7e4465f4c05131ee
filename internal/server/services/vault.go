package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/cryptox"
	"github.com/dmitrijs2005/securevault/internal/dbx"
	"github.com/dmitrijs2005/securevault/internal/logging"
	"github.com/dmitrijs2005/securevault/internal/server/config"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/dmitrijs2005/securevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// sealSalt domain-separates the credential sealing key from other uses of
// the configured seal passphrase.
var sealSalt = []byte("securevault/credentials/v1")

// ChangeNotifier is told after every committed vault mutation.
type ChangeNotifier interface {
	Notify(ctx context.Context, userID string) error
}

// VaultService stores credential entries under users/{userID}/passwords.
// Secrets are sealed with AES-GCM before they reach the repository; the
// additional data binds each ciphertext to its owner and id.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    ChangeNotifier
	logger      logging.Logger
	sealKey     []byte
	now         func() time.Time
	newID       func() (string, error)
	colorTag    func() string
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, n ChangeNotifier, l logging.Logger, cfg *config.Config) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		notifier:    n,
		logger:      l.With("module", "vault_service"),
		sealKey:     cryptox.DeriveMasterKey([]byte(cfg.SealKey), sealSalt),
		now:         time.Now,
		newID:       newCredentialID,
		colorTag:    common.RandomColorTag,
	}
}

func newCredentialID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// knownID reports whether id can name a stored credential. Ids are UUIDs,
// so anything else is treated as not found before reaching the database.
func knownID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func aad(userID, id string) []byte {
	return []byte(userID + "/" + id)
}

// List returns every credential of userID, oldest first.
func (s *VaultService) List(ctx context.Context, userID string) ([]*models.PlainCredential, error) {
	rows, err := s.repomanager.Credentials(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing credentials: %w", err)
	}

	out := make([]*models.PlainCredential, 0, len(rows))
	for _, c := range rows {
		p, err := s.open(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *VaultService) Get(ctx context.Context, userID, id string) (*models.PlainCredential, error) {
	if !knownID(id) {
		return nil, common.ErrNotFound
	}
	c, err := s.repomanager.Credentials(s.db).Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading credential: %w", err)
	}
	return s.open(c)
}

// Push creates a credential. The id, color tag and creation time are
// assigned here.
func (s *VaultService) Push(ctx context.Context, userID, siteName, username, secret string) (*models.PlainCredential, error) {
	if err := common.RequireNonEmpty("siteName", siteName, "username", username, "secret", secret); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("error generating id: %w", err)
	}

	c := &models.Credential{
		ID:        id,
		UserID:    userID,
		SiteName:  siteName,
		Username:  username,
		ColorTag:  s.colorTag(),
		CreatedAt: s.now().UTC(),
	}
	if c.Secret, c.Nonce, err = cryptox.Seal([]byte(secret), s.sealKey, aad(userID, id)); err != nil {
		return nil, fmt.Errorf("error sealing secret: %w", err)
	}

	if err := s.repomanager.Credentials(s.db).Create(ctx, c); err != nil {
		return nil, fmt.Errorf("error creating credential: %w", err)
	}

	s.changed(ctx, userID)
	return plain(c, secret), nil
}

// Update applies patch to an existing credential and refreshes updatedAt.
// Fields present in the patch must not be empty.
func (s *VaultService) Update(ctx context.Context, userID, id string, patch models.CredentialPatch) (*models.PlainCredential, error) {
	if patch.SiteName == nil && patch.Username == nil && patch.Secret == nil {
		return nil, common.NewValidationError("patch", "nothing to update")
	}
	for _, f := range []struct {
		name  string
		value *string
	}{{"siteName", patch.SiteName}, {"username", patch.Username}, {"secret", patch.Secret}} {
		if f.value != nil && *f.value == "" {
			return nil, common.NewValidationError(f.name, "required")
		}
	}
	if !knownID(id) {
		return nil, common.ErrNotFound
	}

	var result *models.PlainCredential
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credentials(tx)

		c, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrNotFound
			}
			return fmt.Errorf("error loading credential: %w", err)
		}

		current, err := s.open(c)
		if err != nil {
			return err
		}

		secret := current.Secret
		if patch.SiteName != nil {
			c.SiteName = *patch.SiteName
		}
		if patch.Username != nil {
			c.Username = *patch.Username
		}
		if patch.Secret != nil {
			secret = *patch.Secret
		}
		if c.Secret, c.Nonce, err = cryptox.Seal([]byte(secret), s.sealKey, aad(userID, id)); err != nil {
			return fmt.Errorf("error sealing secret: %w", err)
		}
		updatedAt := s.now().UTC()
		c.UpdatedAt = &updatedAt

		if err := repo.Update(ctx, c); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrNotFound
			}
			return fmt.Errorf("error updating credential: %w", err)
		}

		result = plain(c, secret)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, userID)
	return result, nil
}

// Remove deletes a credential. Removing an unknown id yields common.ErrNotFound.
func (s *VaultService) Remove(ctx context.Context, userID, id string) error {
	if !knownID(id) {
		return common.ErrNotFound
	}
	if err := s.repomanager.Credentials(s.db).Delete(ctx, userID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error deleting credential: %w", err)
	}

	s.changed(ctx, userID)
	return nil
}

// changed notifies watchers. The mutation is already committed, so a
// failure is only logged.
func (s *VaultService) changed(ctx context.Context, userID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID); err != nil {
		s.logger.Warn(ctx, "change notification failed", "user_id", userID, "error", err)
	}
}

func (s *VaultService) open(c *models.Credential) (*models.PlainCredential, error) {
	secret, err := cryptox.Open(c.Secret, c.Nonce, s.sealKey, aad(c.UserID, c.ID))
	if err != nil {
		return nil, fmt.Errorf("error opening credential %s: %w", c.ID, err)
	}
	return plain(c, string(secret)), nil
}

func plain(c *models.Credential, secret string) *models.PlainCredential {
	return &models.PlainCredential{
		ID:        c.ID,
		SiteName:  c.SiteName,
		Username:  c.Username,
		Secret:    secret,
		ColorTag:  c.ColorTag,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
