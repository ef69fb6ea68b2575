// Package db embeds the SQL schema migrations.
package db

import "embed"

// Migrations holds every file under migrations/, applied in lexical order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
