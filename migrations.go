package mindchat

import "embed"

// MigrationsFS holds the PostgreSQL schema for the Telegram bridge.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
