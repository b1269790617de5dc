// Package models holds the GORM row types for the settlement tables and the
// mappers to and from domain aggregates. Domain packages stay free of ORM
// tags; repositories only ever write these models.
//
// Derived amounts are never stored: a partner transaction has no balance
// column, and dispatch settlement figures are recomputed from the stored
// sale price, advance and collection terms on every read.
package models
