// Package migrations embeds the local cache database migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
