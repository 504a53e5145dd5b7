// Package db provides the embedded database schema and the default catalog
// seed data.
package db

import "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed holds seed/menu.json, seed/inventory.json and seed/rules.json.
//
//go:embed seed/*.json
var Seed embed.FS
