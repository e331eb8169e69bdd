// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the backend owns. It is idempotent
// (IF NOT EXISTS) so it can run on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
