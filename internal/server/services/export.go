package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/securevault/internal/archivex"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/server/config"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/google/uuid"
)

// MinExportPassphraseLen is the shortest passphrase an export accepts.
const MinExportPassphraseLen = 8

const exportContentType = "application/age"

// ObjectStore keeps export archives.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// CredentialLister is the part of VaultService an export needs.
type CredentialLister interface {
	List(ctx context.Context, userID string) ([]*models.PlainCredential, error)
}

// ExportDocument is the plaintext inside an export archive.
type ExportDocument struct {
	Version     int                       `json:"version"`
	ExportedAt  time.Time                 `json:"exported_at"`
	Credentials []*models.PlainCredential `json:"credentials"`
}

// ExportService writes an encrypted copy of a user's vault to object
// storage and returns a time-limited download link.
type ExportService struct {
	vault CredentialLister
	store ObjectStore
	ttl   time.Duration
	now   func() time.Time
	pack  func(v any, passphrase string) ([]byte, error)
}

func NewExportService(v CredentialLister, store ObjectStore, cfg *config.Config) *ExportService {
	return &ExportService{
		vault: v,
		store: store,
		ttl:   cfg.ExportLinkValidityDuration,
		now:   time.Now,
		pack:  archivex.Pack,
	}
}

// Export returns the download URL and the moment it stops working.
func (s *ExportService) Export(ctx context.Context, userID, passphrase string) (string, time.Time, error) {
	if len([]rune(passphrase)) < MinExportPassphraseLen {
		return "", time.Time{}, common.NewValidationError("passphrase", "must be at least 8 characters")
	}

	creds, err := s.vault.List(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now().UTC()
	data, err := s.pack(&ExportDocument{Version: 1, ExportedAt: now, Credentials: creds}, passphrase)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error packing export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json.zst.age", userID, uuid.NewString())
	if err := s.store.Put(ctx, key, data, exportContentType); err != nil {
		return "", time.Time{}, err
	}

	url, err := s.store.PresignGet(ctx, key, s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	return url, now.Add(s.ttl), nil
}
