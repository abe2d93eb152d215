// Package migrations embeds the catalog schema migrations applied at
// connect time.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
