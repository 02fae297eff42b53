// Package integration contains the Integration bounded context: the marketplace
// synchronization engine's domain model.
//
// Key concepts:
//   - MarketplaceAdapter: Port interface for connecting to marketplaces (Mercado Livre, Shopee, WooCommerce, Amazon)
//   - NormalizedProduct/NormalizedOrder/NormalizedCustomer/NormalizedCategory: canonical, marketplace-agnostic shapes
//   - SyncJob/SyncLog: asynchronous job machinery state and per-item audit trail
//   - ProductMapping/CategoryMapping/PriceRule: per-marketplace transformation configuration
//   - SyncConflict: divergence detected by the reconciliation engine, pending manual resolution
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
