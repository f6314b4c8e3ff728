package taskwallet

import "embed"

//go:embed migrations
var MigrationsFS embed.FS
