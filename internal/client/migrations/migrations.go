// Package migrations embeds the goose migrations for the client state file.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
