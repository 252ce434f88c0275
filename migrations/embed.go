// Package migrations embeds SQL migration files into the binary.
//
// The files are read by database.Open through Config.Migrations, so the
// executable runs migrations without the SQL present on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
