// Package db provides the embedded database schema and the default
// promotion data shipped with the binary.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Promotions is the default promotions document (coupons and shipping
// options), fixed at build time. A deployment can point the server at an
// override file instead.
//
//go:embed promotions.json
var Promotions []byte
