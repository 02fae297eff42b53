// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - integration.go: Sync context models (SyncJob, SyncLog, ProductMapping, CategoryMapping, PriceRule, SyncConflict)
// - credential.go: Encrypted marketplace credential storage
// - customer.go: Marketplace customer rows imported from external platforms
//
// The catalog Product carries its own column tags and maps without a
// separate persistence model.
package models
