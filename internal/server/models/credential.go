package models

import "time"

// Credential is one stored login. Secret holds the AES-GCM sealed value and
// is never persisted in plaintext.
type Credential struct {
	ID        string
	UserID    string
	SiteName  string
	Username  string
	Secret    []byte
	Nonce     []byte
	ColorTag  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CredentialPatch carries a partial update; nil fields stay unchanged.
type CredentialPatch struct {
	SiteName *string
	Username *string
	Secret   *string
}

// PlainCredential is a Credential with its secret opened, as handed to
// transport layers.
type PlainCredential struct {
	ID        string
	SiteName  string
	Username  string
	Secret    string
	ColorTag  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
