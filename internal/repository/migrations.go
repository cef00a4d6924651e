package repository

import "embed"

// MigrationsFS содержит SQL-миграции схемы quest-server.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

const MigrationsPath = "migrations"
