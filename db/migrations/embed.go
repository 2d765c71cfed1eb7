// Package migrations embeds the goose migrations, one directory per SQL dialect.
package migrations

import "embed"

//go:embed mysql/*.sql sqlite3/*.sql
var FS embed.FS
