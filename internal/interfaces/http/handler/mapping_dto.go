package handler

import (
	"time"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/catalog"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// UpsertMappingRequest is the request body for creating or updating a product mapping
// @name HandlerUpsertMappingRequest
type UpsertMappingRequest struct {
	LocalProductID     string            `json:"local_product_id" binding:"required,uuid"`
	Marketplace        string            `json:"marketplace" binding:"required"`
	ExternalProductID  string            `json:"external_product_id,omitempty"`
	ExternalCategoryID string            `json:"external_category_id,omitempty"`
	AttributeMapping   map[string]string `json:"attribute_mapping,omitempty"`
	PriceAdjustment    float64           `json:"price_adjustment,omitempty"`
	SyncPrice          *bool             `json:"sync_price,omitempty"`
	SyncStock          *bool             `json:"sync_stock,omitempty"`
	SyncName           *bool             `json:"sync_name,omitempty"`
	IsActive           *bool             `json:"is_active,omitempty"`
}

// ListMappingsRequest holds the query parameters for listing product mappings
// @name HandlerListMappingsRequest
type ListMappingsRequest struct {
	Marketplace string `form:"marketplace"`
	IsActive    *bool  `form:"is_active"`
	SortBy      string `form:"sort_by"`
	SortOrder   string `form:"sort_order"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductMappingResponse is the API representation of a product mapping
// @name HandlerProductMappingResponse
type ProductMappingResponse struct {
	ID                 string            `json:"id"`
	LocalProductID     string            `json:"local_product_id"`
	Marketplace        string            `json:"marketplace"`
	ExternalProductID  string            `json:"external_product_id,omitempty"`
	ExternalCategoryID string            `json:"external_category_id,omitempty"`
	AttributeMapping   map[string]string `json:"attribute_mapping,omitempty"`
	PriceAdjustment    float64           `json:"price_adjustment"`
	SyncPrice          bool              `json:"sync_price"`
	SyncStock          bool              `json:"sync_stock"`
	SyncName           bool              `json:"sync_name"`
	IsActive           bool              `json:"is_active"`
	LastSyncAt         *time.Time        `json:"last_sync_at,omitempty"`
	LastSyncError      string            `json:"last_sync_error,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func toProductMappingResponse(m *integration.ProductMapping) ProductMappingResponse {
	adj, _ := m.PriceAdjustment.Float64()
	return ProductMappingResponse{
		ID:                 m.ID.String(),
		LocalProductID:     m.LocalProductID.String(),
		Marketplace:        string(m.Marketplace),
		ExternalProductID:  m.ExternalProductID,
		ExternalCategoryID: m.ExternalCategoryID,
		AttributeMapping:   m.AttributeMapping,
		PriceAdjustment:    adj,
		SyncPrice:          m.SyncPrice,
		SyncStock:          m.SyncStock,
		SyncName:           m.SyncName,
		IsActive:           m.IsActive,
		LastSyncAt:         m.LastSyncAt,
		LastSyncError:      m.LastSyncError,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toProductMappingResponses(mappings []integration.ProductMapping) []ProductMappingResponse {
	out := make([]ProductMappingResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, toProductMappingResponse(&mappings[i]))
	}
	return out
}

// UnmappedProductResponse is a local product without a mapping on a marketplace
// @name HandlerUnmappedProductResponse
type UnmappedProductResponse struct {
	ID    string  `json:"id"`
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int64   `json:"stock"`
}

func toUnmappedProductResponses(products []catalog.Product) []UnmappedProductResponse {
	out := make([]UnmappedProductResponse, 0, len(products))
	for i := range products {
		p := &products[i]
		price, _ := p.Price.Float64()
		out = append(out, UnmappedProductResponse{
			ID:    p.ID.String(),
			SKU:   p.SKU,
			Name:  p.Name,
			Price: price,
			Stock: p.Stock,
		})
	}
	return out
}

// UpsertCategoryMappingRequest is the request body for a category mapping
// @name HandlerUpsertCategoryMappingRequest
type UpsertCategoryMappingRequest struct {
	LocalCategoryID      string                          `json:"local_category_id" binding:"required,uuid"`
	Marketplace          string                          `json:"marketplace" binding:"required"`
	ExternalCategoryID   string                          `json:"external_category_id" binding:"required"`
	ExternalCategoryName string                          `json:"external_category_name,omitempty"`
	AttributeSchema      []integration.CategoryAttribute `json:"attribute_schema,omitempty"`
}

// CategoryMappingResponse is the API representation of a category mapping
// @name HandlerCategoryMappingResponse
type CategoryMappingResponse struct {
	ID                   string                          `json:"id"`
	LocalCategoryID      string                          `json:"local_category_id"`
	Marketplace          string                          `json:"marketplace"`
	ExternalCategoryID   string                          `json:"external_category_id"`
	ExternalCategoryName string                          `json:"external_category_name,omitempty"`
	AttributeSchema      []integration.CategoryAttribute `json:"attribute_schema,omitempty"`
	CreatedAt            time.Time                       `json:"created_at"`
	UpdatedAt            time.Time                       `json:"updated_at"`
}

func toCategoryMappingResponse(m *integration.CategoryMapping) CategoryMappingResponse {
	return CategoryMappingResponse{
		ID:                   m.ID.String(),
		LocalCategoryID:      m.LocalCategoryID.String(),
		Marketplace:          string(m.Marketplace),
		ExternalCategoryID:   m.ExternalCategoryID,
		ExternalCategoryName: m.ExternalCategoryName,
		AttributeSchema:      m.AttributeSchema,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toCategoryMappingResponses(mappings []integration.CategoryMapping) []CategoryMappingResponse {
	out := make([]CategoryMappingResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, toCategoryMappingResponse(&mappings[i]))
	}
	return out
}
