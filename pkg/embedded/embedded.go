// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - schemas/datasets_schema.sql - imported P&L and cohort tables
// - schemas/results_schema.sql - append-only simulation run and trajectory tables
//
// Embedding the schemas means a deployed binary can initialize a fresh data
// directory without any files shipped alongside it.
//
//go:embed schemas
var Files embed.FS
