// Package migrations embeds SQL migration files for the SQL listen stores
// (SQLite and PostgreSQL).
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
