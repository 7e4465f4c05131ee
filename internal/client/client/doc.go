// Package client talks to the SecureVault backend.
//
// IdentityBackend and VaultBackend are the contracts the client core
// (internal/client/services) depends on. GRPCClient implements both over
// gRPC: it keeps the access and refresh tokens, injects the access token
// via interceptors, transparently refreshes an expired one, bounds every
// unary call by the configured request timeout and maps gRPC statuses to
// the sentinel errors of internal/common.
//
// InitDatabase and RunMigrations bootstrap the local SQLite file that
// persists the session between runs.
package client
