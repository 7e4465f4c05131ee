// Package services holds the client core of SecureVault: the session
// manager that owns the signed-in identity, the vault store that caches
// the identity's credential entries, the sync listener that keeps the
// cache in step with the server, and the entry editor used by the UI to
// stage a new or changed entry.
//
// The store binds to the session manager: every identity change tears
// down the previous scope (cache, listener) and starts a new one, so data
// of one identity is never visible to another.
package services
