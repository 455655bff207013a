// Package migrations embeds the SQL schema migrations applied at
// store startup.
package migrations

import "embed"

// FS holds the migration files, named N_description.up.sql and
// applied in numeric order.
//
//go:embed *.sql
var FS embed.FS
