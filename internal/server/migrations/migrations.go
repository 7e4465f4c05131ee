// Package migrations embeds the PostgreSQL schema applied with goose at
// server start.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
