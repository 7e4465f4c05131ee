// Package models defines the client-side view of identities and
// credential entries.
package models

import (
	"sort"
	"strings"
	"time"
)

// Identity is the authenticated account a client session acts for.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// CredentialEntry is one stored credential. ID, ColorTag and CreatedAt are
// assigned by the backend; UpdatedAt is nil until the first update.
type CredentialEntry struct {
	ID        string
	SiteName  string
	Username  string
	Secret    string
	ColorTag  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Clone returns a deep copy, so callers can never mutate cached state.
func (e *CredentialEntry) Clone() *CredentialEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.UpdatedAt != nil {
		t := *e.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Matches reports whether query occurs, ignoring case, in the site name or
// the username. An empty query matches everything.
func (e *CredentialEntry) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.SiteName), q) ||
		strings.Contains(strings.ToLower(e.Username), q)
}

// EntryFields are the user-supplied values of a new entry.
type EntryFields struct {
	SiteName string
	Username string
	Secret   string
}

// CredentialPatch is a partial update: nil fields stay unchanged.
type CredentialPatch struct {
	SiteName *string
	Username *string
	Secret   *string
}

func (p CredentialPatch) IsEmpty() bool {
	return p.SiteName == nil && p.Username == nil && p.Secret == nil
}

// SortEntries orders entries oldest first, breaking ties by id.
func SortEntries(entries []*CredentialEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
