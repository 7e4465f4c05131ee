// Package cli provides the interactive SecureVault command-line client.
//
// It wires configuration, the local session database, the gRPC backend,
// the session manager and the vault store, then runs a REPL until the
// user exits. A persisted session is resumed on start, so a signed-in
// user stays signed in across runs.
//
// The REPL is started via App.Run(ctx). See runREPL for the commands.
package cli
