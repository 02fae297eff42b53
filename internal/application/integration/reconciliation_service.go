package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// priceTolerance absorbs marketplace rounding: price pairs closer than one
// cent are considered equal.
var priceTolerance = decimal.NewFromFloat(0.01)

// ReconcileInput selects what one reconciliation run compares and whether it
// pushes fixes.
type ReconcileInput struct {
	TenantID    uuid.UUID
	AccountID   uuid.UUID
	Marketplace integration.MarketplaceCode
	EntityType  integration.ReconcileEntityType
	// SKUs narrows the run to the listed products; empty compares everything.
	SKUs []string
	// FixDifferences pushes the local value for every stock and price
	// divergence after the compare pass. Local state is the source of truth.
	FixDifferences bool
	// ReportOnly suppresses conflict persistence; the run only returns the
	// report.
	ReportOnly bool
}

// ReconciliationService compares local catalog state against live
// marketplace state, joined by normalized SKU, and reports every divergence.
// Critical differences are persisted as conflicts for manual resolution
// unless the run is report-only or auto-fix is on.
type ReconciliationService struct {
	registry     integration.AdapterRegistry
	credentials  integration.CredentialStore
	productRepo  catalog.ProductRepository
	mappingRepo  integration.ProductMappingRepository
	conflictRepo integration.SyncConflictRepository
	logger       *zap.Logger
}

// NewReconciliationService creates a ReconciliationService.
func NewReconciliationService(
	registry integration.AdapterRegistry,
	credentials integration.CredentialStore,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
	conflictRepo integration.SyncConflictRepository,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		registry:     registry,
		credentials:  credentials,
		productRepo:  productRepo,
		mappingRepo:  mappingRepo,
		conflictRepo: conflictRepo,
		logger:       logger,
	}
}

// Reconcile runs one comparison pass and returns the report.
func (s *ReconciliationService) Reconcile(ctx context.Context, input ReconcileInput) (*integration.ReconcileReport, error) {
	entity := input.EntityType
	if entity == "" {
		entity = integration.ReconcileEntityAll
	}
	if !entity.IsValid() {
		return nil, fmt.Errorf("integration: unknown reconcile entity type %q", input.EntityType)
	}

	adapter, err := s.registry.Get(input.Marketplace)
	if err != nil {
		return nil, err
	}
	bundle, err := s.credentials.Get(ctx, input.TenantID, input.AccountID, input.Marketplace)
	if err != nil {
		return nil, err
	}
	account := integration.AccountContext{
		TenantID:    input.TenantID,
		AccountID:   input.AccountID,
		Credentials: bundle,
	}

	locals, err := s.productRepo.FindActive(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	linked, err := s.linkedBySKU(ctx, input, locals)
	if err != nil {
		return nil, err
	}

	report := &integration.ReconcileReport{
		Marketplace: input.Marketplace,
		EntityType:  entity,
	}

	// Stock and price runs read through the dedicated endpoints scoped to
	// the linked SKU set; product and full runs page through the listings.
	switch entity {
	case integration.ReconcileEntityStock:
		err = s.reconcileStock(ctx, adapter, account, report, linked)
	case integration.ReconcileEntityPrice:
		err = s.reconcilePrices(ctx, adapter, account, report, linked)
	default:
		err = s.reconcileListings(ctx, adapter, account, entity, report, linked)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case input.ReportOnly:
		// Report-only runs never write, even when auto-fix was requested.
	case input.FixDifferences:
		if err := s.fix(ctx, adapter, account, report, linked); err != nil {
			return nil, err
		}
	default:
		s.persistConflicts(ctx, input, report, linked)
	}

	s.logger.Info("Reconciliation finished",
		zap.String("marketplace", string(input.Marketplace)),
		zap.String("entity_type", string(entity)),
		zap.Int("total_checked", report.TotalChecked),
		zap.Int("critical", report.Summary.Critical),
		zap.Int("warnings", report.Summary.Warnings),
		zap.Int("fixed", report.Fixed),
	)
	return report, nil
}

// ResolveConflict applies a manual resolution. Picking the external value
// writes it back to the local product; picking the local value leaves local
// state alone and the next push job realigns the marketplace.
func (s *ReconciliationService) ResolveConflict(ctx context.Context, tenantID, conflictID uuid.UUID, choice integration.ResolutionChoice) (*integration.SyncConflict, error) {
	conflict, err := s.conflictRepo.FindByID(ctx, tenantID, conflictID)
	if err != nil {
		return nil, err
	}
	value, err := conflict.Resolve(choice)
	if err != nil {
		return nil, err
	}

	if choice == integration.ResolveWithExternal {
		fields, err := resolutionFields(conflict.Field, value)
		if err != nil {
			return nil, err
		}
		if fields != nil {
			if err := s.productRepo.UpdateFields(ctx, tenantID, conflict.LocalProductID, fields); err != nil {
				return nil, err
			}
		}
	}

	if err := s.conflictRepo.Save(ctx, conflict); err != nil {
		return nil, err
	}
	return conflict, nil
}

// PendingConflicts lists a tenant's unresolved conflicts.
func (s *ReconciliationService) PendingConflicts(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode, page, pageSize int) ([]integration.SyncConflict, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.conflictRepo.FindPending(ctx, tenantID, code, page, pageSize)
}

// linkedBySKU indexes the linked, active products by normalized SKU. Only
// products with a linked mapping are compared; everything else has no
// counterpart to compare against.
func (s *ReconciliationService) linkedBySKU(ctx context.Context, input ReconcileInput, locals []catalog.Product) (map[string]*catalog.Product, error) {
	ids := make([]uuid.UUID, len(locals))
	for i := range locals {
		ids[i] = locals[i].ID
	}
	mappings, err := s.mappingRepo.FindByProducts(ctx, input.TenantID, ids, input.Marketplace)
	if err != nil {
		return nil, err
	}
	linkedIDs := make(map[uuid.UUID]struct{}, len(mappings))
	for i := range mappings {
		if mappings[i].IsActive && mappings[i].ExternalProductID != "" {
			linkedIDs[mappings[i].LocalProductID] = struct{}{}
		}
	}
	var wanted map[string]struct{}
	if len(input.SKUs) > 0 {
		wanted = make(map[string]struct{}, len(input.SKUs))
		for _, sku := range input.SKUs {
			wanted[catalog.NormalizeSKU(sku)] = struct{}{}
		}
	}
	out := make(map[string]*catalog.Product, len(linkedIDs))
	for i := range locals {
		if _, ok := linkedIDs[locals[i].ID]; !ok {
			continue
		}
		sku := catalog.NormalizeSKU(locals[i].SKU)
		if wanted != nil {
			if _, ok := wanted[sku]; !ok {
				continue
			}
		}
		out[sku] = &locals[i]
	}
	return out, nil
}

// reconcileListings pages through the marketplace listings and compares the
// entity's fields for every linked SKU.
func (s *ReconciliationService) reconcileListings(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	account integration.AccountContext,
	entity integration.ReconcileEntityType,
	report *integration.ReconcileReport,
	linked map[string]*catalog.Product,
) error {
	external, err := s.fetchExternal(ctx, adapter, account)
	if err != nil {
		return err
	}
	for sku, local := range linked {
		report.TotalChecked++
		remote, ok := external[sku]
		if !ok {
			report.Add(missingListing(sku))
			continue
		}
		s.compare(report, entity, local, remote)
	}
	return nil
}

// reconcileStock reads live stock through the adapter's stock endpoint,
// scoped to the linked SKU set. A SKU absent from the response has no live
// listing.
func (s *ReconciliationService) reconcileStock(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	account integration.AccountContext,
	report *integration.ReconcileReport,
	linked map[string]*catalog.Product,
) error {
	skus := linkedSKUs(linked)
	if len(skus) == 0 {
		return nil
	}
	if err := adapter.WaitForRateLimit(ctx, account); err != nil {
		return err
	}
	external, err := adapter.FetchStock(ctx, account, skus)
	if err != nil {
		return err
	}
	for _, sku := range skus {
		report.TotalChecked++
		remote, ok := external[sku]
		if !ok {
			report.Add(missingListing(sku))
			continue
		}
		if linked[sku].Stock != remote {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "stock",
				LocalValue:    strconv.FormatInt(linked[sku].Stock, 10),
				ExternalValue: strconv.FormatInt(remote, 10),
				Severity:      integration.SeverityCritical,
			})
		}
	}
	return nil
}

// reconcilePrices reads live prices through the adapter's price endpoint,
// scoped to the linked SKU set.
func (s *ReconciliationService) reconcilePrices(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	account integration.AccountContext,
	report *integration.ReconcileReport,
	linked map[string]*catalog.Product,
) error {
	skus := linkedSKUs(linked)
	if len(skus) == 0 {
		return nil
	}
	if err := adapter.WaitForRateLimit(ctx, account); err != nil {
		return err
	}
	external, err := adapter.FetchPrices(ctx, account, skus)
	if err != nil {
		return err
	}
	for _, sku := range skus {
		report.TotalChecked++
		remote, ok := external[sku]
		if !ok {
			report.Add(missingListing(sku))
			continue
		}
		if linked[sku].Price.Sub(remote).Abs().GreaterThan(priceTolerance) {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "price",
				LocalValue:    linked[sku].Price.StringFixed(2),
				ExternalValue: remote.StringFixed(2),
				Severity:      integration.SeverityCritical,
			})
		}
	}
	return nil
}

// linkedSKUs returns the linked SKU set in a stable order.
func linkedSKUs(linked map[string]*catalog.Product) []string {
	skus := make([]string, 0, len(linked))
	for sku := range linked {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// missingListing is the difference reported when a linked SKU has no live
// counterpart.
func missingListing(sku string) integration.Difference {
	return integration.Difference{
		SKU:           sku,
		Field:         "existence",
		LocalValue:    "present",
		ExternalValue: "missing",
		Severity:      integration.SeverityCritical,
	}
}

// fetchExternal pulls every listing from the marketplace, indexed by
// normalized SKU.
func (s *ReconciliationService) fetchExternal(ctx context.Context, adapter integration.MarketplaceAdapter, account integration.AccountContext) (map[string]*integration.NormalizedProduct, error) {
	out := map[string]*integration.NormalizedProduct{}
	page := integration.Page{Number: 1, Size: defaultImportPageSize}
	for {
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return nil, err
		}
		res, err := adapter.FetchProducts(ctx, account, page)
		if err != nil {
			return nil, err
		}
		for i := range res.Items {
			sku := catalog.NormalizeSKU(res.Items[i].SKU)
			if sku == "" {
				continue
			}
			out[sku] = &res.Items[i]
		}
		if !res.HasMore {
			return out, nil
		}
		page.Number++
		page.Cursor = res.NextCursor
	}
}

// compare emits the field-level differences for one SKU pair. Stock and
// price divergence is critical; name and active divergence is a warning.
func (s *ReconciliationService) compare(report *integration.ReconcileReport, entity integration.ReconcileEntityType, local *catalog.Product, remote *integration.NormalizedProduct) {
	sku := catalog.NormalizeSKU(local.SKU)

	if entity == integration.ReconcileEntityAll {
		if local.Stock != remote.Stock {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "stock",
				LocalValue:    strconv.FormatInt(local.Stock, 10),
				ExternalValue: strconv.FormatInt(remote.Stock, 10),
				Severity:      integration.SeverityCritical,
			})
		}
	}

	if entity == integration.ReconcileEntityAll {
		if local.Price.Sub(remote.Price).Abs().GreaterThan(priceTolerance) {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "price",
				LocalValue:    local.Price.StringFixed(2),
				ExternalValue: remote.Price.StringFixed(2),
				Severity:      integration.SeverityCritical,
			})
		}
	}

	if entity == integration.ReconcileEntityAll || entity == integration.ReconcileEntityProduct {
		if !strings.EqualFold(strings.TrimSpace(local.Name), strings.TrimSpace(remote.Name)) {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "name",
				LocalValue:    local.Name,
				ExternalValue: remote.Name,
				Severity:      integration.SeverityWarning,
			})
		}
		if local.IsActive() != remote.Active {
			report.Add(integration.Difference{
				SKU:           sku,
				Field:         "active",
				LocalValue:    strconv.FormatBool(local.IsActive()),
				ExternalValue: strconv.FormatBool(remote.Active),
				Severity:      integration.SeverityWarning,
			})
		}
	}
}

// fix pushes the local value for every stock and price divergence in one
// batched call per field.
func (s *ReconciliationService) fix(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	account integration.AccountContext,
	report *integration.ReconcileReport,
	linked map[string]*catalog.Product,
) error {
	var stock []integration.StockUpdate
	var price []integration.PriceUpdate
	for _, d := range report.Differences {
		local, ok := linked[d.SKU]
		if !ok {
			continue
		}
		switch d.Field {
		case "stock":
			stock = append(stock, integration.StockUpdate{SKU: d.SKU, Quantity: local.Stock})
		case "price":
			price = append(price, integration.PriceUpdate{SKU: d.SKU, Price: local.Price})
		}
	}
	if len(stock) > 0 {
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}
		if err := adapter.UpdateStock(ctx, account, stock); err != nil {
			return err
		}
		report.Fixed += len(stock)
	}
	if len(price) > 0 {
		if err := adapter.WaitForRateLimit(ctx, account); err != nil {
			return err
		}
		if err := adapter.UpdatePrice(ctx, account, price); err != nil {
			return err
		}
		report.Fixed += len(price)
	}
	return nil
}

// persistConflicts stores the critical differences for manual resolution.
func (s *ReconciliationService) persistConflicts(ctx context.Context, input ReconcileInput, report *integration.ReconcileReport, linked map[string]*catalog.Product) {
	for _, d := range report.Differences {
		if d.Severity != integration.SeverityCritical {
			continue
		}
		local, ok := linked[d.SKU]
		if !ok {
			continue
		}
		conflict := integration.NewSyncConflict(input.TenantID, local.ID, input.Marketplace, d)
		if err := s.conflictRepo.Save(ctx, conflict); err != nil {
			s.logger.Warn("Failed to persist sync conflict",
				zap.String("sku", d.SKU),
				zap.String("field", d.Field),
				zap.Error(err),
			)
		}
	}
}

// resolutionFields maps a conflict field to the local product columns the
// external value writes back to. Existence conflicts have no local column.
func resolutionFields(field, value string) (map[string]any, error) {
	switch field {
	case "stock":
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integration: invalid stock resolution value %q: %w", value, err)
		}
		return map[string]any{"stock": qty}, nil
	case "price":
		price, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("integration: invalid price resolution value %q: %w", value, err)
		}
		return map[string]any{"price": price}, nil
	case "name":
		return map[string]any{"name": value}, nil
	case "active":
		status := catalog.ProductStatusInactive
		if value == "true" {
			status = catalog.ProductStatusActive
		}
		return map[string]any{"status": status}, nil
	case "existence":
		return nil, nil
	default:
		return nil, errors.New("integration: unknown conflict field " + field)
	}
}
