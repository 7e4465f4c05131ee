package services

import (
	"context"

	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/common"
)

type entryWriter interface {
	Create(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error)
	Update(ctx context.Context, id string, patch models.CredentialPatch) (*models.CredentialEntry, error)
}

// EntryEditor holds an uncommitted draft of a new or existing entry.
// It is meant for a single UI flow and is not safe for concurrent use.
type EntryEditor struct {
	store     entryWriter
	editingID string
	draft     models.EntryFields
}

func NewEntryEditor(store entryWriter) *EntryEditor {
	return &EntryEditor{store: store}
}

// Begin starts a draft. With a nil existing entry the draft is empty and
// Commit creates a new entry; otherwise it is prefilled and Commit updates.
func (e *EntryEditor) Begin(existing *models.CredentialEntry) {
	e.Discard()
	if existing == nil {
		return
	}
	e.editingID = existing.ID
	e.draft = models.EntryFields{
		SiteName: existing.SiteName,
		Username: existing.Username,
		Secret:   existing.Secret,
	}
}

func (e *EntryEditor) SetSiteName(v string) { e.draft.SiteName = v }
func (e *EntryEditor) SetUsername(v string) { e.draft.Username = v }
func (e *EntryEditor) SetSecret(v string)   { e.draft.Secret = v }

func (e *EntryEditor) Draft() models.EntryFields { return e.draft }

// EditingID is empty for a new entry.
func (e *EntryEditor) EditingID() string { return e.editingID }

// Commit saves the draft. On success the draft is cleared; on failure it
// is kept so the caller can retry.
func (e *EntryEditor) Commit(ctx context.Context) (*models.CredentialEntry, error) {
	d := e.draft
	if err := common.RequireNonEmpty(
		"siteName", d.SiteName,
		"username", d.Username,
		"secret", d.Secret,
	); err != nil {
		return nil, err
	}

	var (
		saved *models.CredentialEntry
		err   error
	)
	if e.editingID == "" {
		saved, err = e.store.Create(ctx, d)
	} else {
		saved, err = e.store.Update(ctx, e.editingID, models.CredentialPatch{
			SiteName: &d.SiteName,
			Username: &d.Username,
			Secret:   &d.Secret,
		})
	}
	if err != nil {
		return nil, err
	}

	e.Discard()
	return saved, nil
}

func (e *EntryEditor) Discard() {
	e.editingID = ""
	e.draft = models.EntryFields{}
}

// Strength scores the draft secret from 0 to 5.
func (e *EntryEditor) Strength() int {
	return common.Strength(e.draft.Secret)
}
