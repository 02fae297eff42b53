package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// Mock implementations

type mockSyncJobRepository struct {
	mock.Mock
}

func (m *mockSyncJobRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncJob, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncJob), args.Error(1)
}

func (m *mockSyncJobRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.SyncJob), args.Get(1).(int64), args.Error(2)
}

func (m *mockSyncJobRepository) Save(ctx context.Context, job *integration.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockSyncJobRepository) SaveIfStatus(ctx context.Context, job *integration.SyncJob, expected integration.SyncJobStatus) (bool, error) {
	args := m.Called(ctx, job, expected)
	return args.Bool(0), args.Error(1)
}

func (m *mockSyncJobRepository) HasActiveJob(ctx context.Context, tenantID, accountID uuid.UUID, marketplace integration.MarketplaceCode, kind integration.SyncKind) (bool, error) {
	args := m.Called(ctx, tenantID, accountID, marketplace, kind)
	return args.Bool(0), args.Error(1)
}

func (m *mockSyncJobRepository) CurrentStatus(ctx context.Context, id uuid.UUID) (integration.SyncJobStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(integration.SyncJobStatus), args.Error(1)
}

type mockSyncLogRepository struct {
	mock.Mock
}

func (m *mockSyncLogRepository) Append(ctx context.Context, entry *integration.SyncLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockSyncLogRepository) FindByJob(ctx context.Context, tenantID, jobID uuid.UUID, page, pageSize int) ([]integration.SyncLog, int64, error) {
	args := m.Called(ctx, tenantID, jobID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.SyncLog), args.Get(1).(int64), args.Error(2)
}

type mockProductMappingRepository struct {
	mock.Mock
}

func (m *mockProductMappingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.ProductMapping, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *mockProductMappingRepository) FindByProductAndMarketplace(ctx context.Context, tenantID, localProductID uuid.UUID, code integration.MarketplaceCode) (*integration.ProductMapping, error) {
	args := m.Called(ctx, tenantID, localProductID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *mockProductMappingRepository) FindByExternalProduct(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode, externalProductID string) (*integration.ProductMapping, error) {
	args := m.Called(ctx, tenantID, code, externalProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *mockProductMappingRepository) FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, code integration.MarketplaceCode) ([]integration.ProductMapping, error) {
	args := m.Called(ctx, tenantID, productIDs, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductMapping), args.Error(1)
}

func (m *mockProductMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.ProductMapping), args.Get(1).(int64), args.Error(2)
}

func (m *mockProductMappingRepository) Upsert(ctx context.Context, mapping *integration.ProductMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockProductMappingRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockProductMappingRepository) UnmappedProductIDs(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockProductMappingRepository) Stats(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) (*integration.MappingStats, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MappingStats), args.Error(1)
}

type mockCategoryMappingRepository struct {
	mock.Mock
}

func (m *mockCategoryMappingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.CategoryMapping, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CategoryMapping), args.Error(1)
}

func (m *mockCategoryMappingRepository) FindByCategoryAndMarketplace(ctx context.Context, tenantID, localCategoryID uuid.UUID, code integration.MarketplaceCode) (*integration.CategoryMapping, error) {
	args := m.Called(ctx, tenantID, localCategoryID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CategoryMapping), args.Error(1)
}

func (m *mockCategoryMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]integration.CategoryMapping, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CategoryMapping), args.Error(1)
}

func (m *mockCategoryMappingRepository) Upsert(ctx context.Context, mapping *integration.CategoryMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockCategoryMappingRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type mockPriceRuleRepository struct {
	mock.Mock
}

func (m *mockPriceRuleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.PriceRule, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PriceRule), args.Error(1)
}

func (m *mockPriceRuleRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]integration.PriceRule, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.PriceRule), args.Error(1)
}

func (m *mockPriceRuleRepository) FindApplicable(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode) ([]integration.PriceRule, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.PriceRule), args.Error(1)
}

func (m *mockPriceRuleRepository) Save(ctx context.Context, rule *integration.PriceRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockPriceRuleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type mockSyncConflictRepository struct {
	mock.Mock
}

func (m *mockSyncConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncConflict, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncConflict), args.Error(1)
}

func (m *mockSyncConflictRepository) FindPending(ctx context.Context, tenantID uuid.UUID, code integration.MarketplaceCode, page, pageSize int) ([]integration.SyncConflict, int64, error) {
	args := m.Called(ctx, tenantID, code, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.SyncConflict), args.Get(1).(int64), args.Error(2)
}

func (m *mockSyncConflictRepository) Save(ctx context.Context, conflict *integration.SyncConflict) error {
	args := m.Called(ctx, conflict)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindBySKUs(ctx context.Context, tenantID uuid.UUID, skus []string) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateFields(ctx context.Context, tenantID, id uuid.UUID, fields map[string]any) error {
	args := m.Called(ctx, tenantID, id, fields)
	return args.Error(0)
}

type mockJobEnqueuer struct {
	mock.Mock
}

func (m *mockJobEnqueuer) Enqueue(ctx context.Context, job *integration.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) Get(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) (*integration.CredentialBundle, error) {
	args := m.Called(ctx, tenantID, accountID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CredentialBundle), args.Error(1)
}

func (m *mockCredentialStore) Put(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode, bundle *integration.CredentialBundle) error {
	args := m.Called(ctx, tenantID, accountID, code, bundle)
	return args.Error(0)
}

func (m *mockCredentialStore) Delete(ctx context.Context, tenantID, accountID uuid.UUID, code integration.MarketplaceCode) error {
	args := m.Called(ctx, tenantID, accountID, code)
	return args.Error(0)
}

type mockAdapterRegistry struct {
	mock.Mock
}

func (m *mockAdapterRegistry) Get(code integration.MarketplaceCode) (integration.MarketplaceAdapter, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.MarketplaceAdapter), args.Error(1)
}

func (m *mockAdapterRegistry) List() []integration.MarketplaceAdapter {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]integration.MarketplaceAdapter)
}

type mockMarketplaceAdapter struct {
	mock.Mock
	code integration.MarketplaceCode
}

func (m *mockMarketplaceAdapter) Code() integration.MarketplaceCode {
	if m.code != "" {
		return m.code
	}
	return integration.MarketplaceMercadoLivre
}

func (m *mockMarketplaceAdapter) ValidateCredentials(ctx context.Context, account integration.AccountContext) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) FetchProducts(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedProduct], error) {
	args := m.Called(ctx, account, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Paginated[integration.NormalizedProduct]), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchProduct(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedProduct, error) {
	args := m.Called(ctx, account, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedProduct), args.Error(1)
}

func (m *mockMarketplaceAdapter) CreateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) (string, error) {
	args := m.Called(ctx, account, product)
	return args.String(0), args.Error(1)
}

func (m *mockMarketplaceAdapter) UpdateProduct(ctx context.Context, account integration.AccountContext, product *integration.NormalizedProduct) error {
	args := m.Called(ctx, account, product)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) DeleteProduct(ctx context.Context, account integration.AccountContext, externalID string) error {
	args := m.Called(ctx, account, externalID)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) FetchCategories(ctx context.Context, account integration.AccountContext) ([]integration.NormalizedCategory, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.NormalizedCategory), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchCategoryAttributes(ctx context.Context, account integration.AccountContext, categoryID string) ([]integration.CategoryAttribute, error) {
	args := m.Called(ctx, account, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CategoryAttribute), args.Error(1)
}

func (m *mockMarketplaceAdapter) UpdateStock(ctx context.Context, account integration.AccountContext, updates []integration.StockUpdate) error {
	args := m.Called(ctx, account, updates)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) FetchStock(ctx context.Context, account integration.AccountContext, skus []string) (map[string]int64, error) {
	args := m.Called(ctx, account, skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *mockMarketplaceAdapter) UpdatePrice(ctx context.Context, account integration.AccountContext, updates []integration.PriceUpdate) error {
	args := m.Called(ctx, account, updates)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) FetchPrices(ctx context.Context, account integration.AccountContext, skus []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, account, skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchCustomers(ctx context.Context, account integration.AccountContext, page integration.Page) (*integration.Paginated[integration.NormalizedCustomer], error) {
	args := m.Called(ctx, account, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Paginated[integration.NormalizedCustomer]), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchCustomer(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedCustomer, error) {
	args := m.Called(ctx, account, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedCustomer), args.Error(1)
}

func (m *mockMarketplaceAdapter) UpsertCustomer(ctx context.Context, account integration.AccountContext, customer *integration.NormalizedCustomer) (string, error) {
	args := m.Called(ctx, account, customer)
	return args.String(0), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchOrders(ctx context.Context, account integration.AccountContext, since time.Time, page integration.Page) (*integration.Paginated[integration.NormalizedOrder], error) {
	args := m.Called(ctx, account, since, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Paginated[integration.NormalizedOrder]), args.Error(1)
}

func (m *mockMarketplaceAdapter) FetchOrder(ctx context.Context, account integration.AccountContext, externalID string) (*integration.NormalizedOrder, error) {
	args := m.Called(ctx, account, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedOrder), args.Error(1)
}

func (m *mockMarketplaceAdapter) CreateWebhook(ctx context.Context, account integration.AccountContext, url, topic, secret string) (*integration.WebhookSubscription, error) {
	args := m.Called(ctx, account, url, topic, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WebhookSubscription), args.Error(1)
}

func (m *mockMarketplaceAdapter) DeleteWebhook(ctx context.Context, account integration.AccountContext, webhookID string) error {
	args := m.Called(ctx, account, webhookID)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) ValidateWebhookSignature(payload []byte, signature, secret string) error {
	args := m.Called(payload, signature, secret)
	return args.Error(0)
}

func (m *mockMarketplaceAdapter) RateLimitInfo(account integration.AccountContext) integration.RateLimitInfo {
	return integration.RateLimitInfo{}
}

func (m *mockMarketplaceAdapter) WaitForRateLimit(ctx context.Context, account integration.AccountContext) error {
	return ctx.Err()
}

func (m *mockMarketplaceAdapter) NormalizeError(err error) *integration.AdapterError {
	return integration.AsAdapterError(m.Code(), err)
}
