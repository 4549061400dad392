// Package migrations holds the SQL schema, embedded so binaries carry it.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
