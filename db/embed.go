// Package db provides the embedded schema and seed catalogue.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Products is the default seed catalogue. Product 1 is the promotional item.
//
//go:embed seed/products.json
var Products []byte
