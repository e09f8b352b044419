// Package migrations embeds the goose SQL migrations that define the server
// schema. The repository manager points goose at this filesystem on startup,
// so applying the schema is idempotent across restarts.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
