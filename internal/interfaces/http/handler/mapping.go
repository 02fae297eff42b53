package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

// MappingHandler handles product and category mapping API endpoints
type MappingHandler struct {
	BaseHandler
	mappingService *appintegration.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappingService *appintegration.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

// Upsert godoc
// @ID           upsertProductMapping
// @Summary      Create or update a product mapping
// @Description  Links a local product to its marketplace listing; the (product, marketplace) pair is unique
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        request body UpsertMappingRequest true "Mapping fields"
// @Success      200 {object} APIResponse[ProductMappingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings [put]
func (h *MappingHandler) Upsert(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req UpsertMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	marketplace := integration.MarketplaceCode(req.Marketplace)
	if !marketplace.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	mapping, err := h.mappingService.UpsertMapping(c.Request.Context(), tenantID, appintegration.UpsertMappingInput{
		LocalProductID:     uuid.MustParse(req.LocalProductID),
		Marketplace:        marketplace,
		ExternalProductID:  req.ExternalProductID,
		ExternalCategoryID: req.ExternalCategoryID,
		AttributeMapping:   req.AttributeMapping,
		PriceAdjustment:    toDecimal(req.PriceAdjustment),
		SyncPrice:          req.SyncPrice,
		SyncStock:          req.SyncStock,
		SyncName:           req.SyncName,
		IsActive:           req.IsActive,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toProductMappingResponse(mapping))
}

// Get godoc
// @ID           getProductMapping
// @Summary      Get a product mapping
// @Tags         mappings
// @Produce      json
// @Param        id path string true "Mapping ID"
// @Success      200 {object} APIResponse[ProductMappingResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /mappings/{id} [get]
func (h *MappingHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	mapping, err := h.mappingService.GetMapping(c.Request.Context(), tenantID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toProductMappingResponse(mapping))
}

// List godoc
// @ID           listProductMappings
// @Summary      List product mappings
// @Tags         mappings
// @Produce      json
// @Param        marketplace query string false "Marketplace code filter"
// @Param        is_active query bool false "Active flag filter"
// @Param        sort_by query string false "Sort field"
// @Param        sort_order query string false "Sort direction (ASC or DESC)"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]ProductMappingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings [get]
func (h *MappingHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListMappingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := integration.ProductMappingFilter{
		IsActive:  req.IsActive,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.Marketplace != "" {
		code := integration.MarketplaceCode(req.Marketplace)
		if !code.IsValid() {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
			return
		}
		filter.Marketplace = &code
	}

	mappings, total, err := h.mappingService.ListMappings(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, toProductMappingResponses(mappings), total, page, pageSize)
}

// Delete godoc
// @ID           deleteProductMapping
// @Summary      Delete a product mapping
// @Description  Unlinks the product; the marketplace listing itself is untouched
// @Tags         mappings
// @Produce      json
// @Param        id path string true "Mapping ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /mappings/{id} [delete]
func (h *MappingHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	if err := h.mappingService.DeleteMapping(c.Request.Context(), tenantID, uuid.MustParse(uri.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Unmapped godoc
// @ID           listUnmappedProducts
// @Summary      List products without a mapping
// @Description  Returns active local products that have no mapping row for the marketplace
// @Tags         mappings
// @Produce      json
// @Param        marketplace query string true "Marketplace code"
// @Success      200 {object} APIResponse[[]UnmappedProductResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings/unmapped [get]
func (h *MappingHandler) Unmapped(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	code := integration.MarketplaceCode(c.Query("marketplace"))
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	products, err := h.mappingService.UnmappedProducts(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUnmappedProductResponses(products))
}

// Stats godoc
// @ID           getMappingStats
// @Summary      Get mapping coverage stats
// @Description  Aggregates mapping counts for a marketplace: total, active, linked, failed and never synced
// @Tags         mappings
// @Produce      json
// @Param        marketplace query string true "Marketplace code"
// @Success      200 {object} APIResponse[integration.MappingStats]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings/stats [get]
func (h *MappingHandler) Stats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	code := integration.MarketplaceCode(c.Query("marketplace"))
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	stats, err := h.mappingService.MappingStats(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// UpsertCategory godoc
// @ID           upsertCategoryMapping
// @Summary      Create or update a category mapping
// @Description  Links a local category to a marketplace category and stores its attribute schema
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        request body UpsertCategoryMappingRequest true "Category mapping fields"
// @Success      200 {object} APIResponse[CategoryMappingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings/categories [put]
func (h *MappingHandler) UpsertCategory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req UpsertCategoryMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	marketplace := integration.MarketplaceCode(req.Marketplace)
	if !marketplace.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	mapping, err := h.mappingService.UpsertCategoryMapping(
		c.Request.Context(),
		tenantID,
		uuid.MustParse(req.LocalCategoryID),
		marketplace,
		req.ExternalCategoryID,
		req.ExternalCategoryName,
		req.AttributeSchema,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCategoryMappingResponse(mapping))
}

// ListCategories godoc
// @ID           listCategoryMappings
// @Summary      List category mappings
// @Tags         mappings
// @Produce      json
// @Param        marketplace query string true "Marketplace code"
// @Success      200 {object} APIResponse[[]CategoryMappingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /mappings/categories [get]
func (h *MappingHandler) ListCategories(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	code := integration.MarketplaceCode(c.Query("marketplace"))
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	mappings, err := h.mappingService.ListCategoryMappings(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCategoryMappingResponses(mappings))
}

// DeleteCategory godoc
// @ID           deleteCategoryMapping
// @Summary      Delete a category mapping
// @Tags         mappings
// @Produce      json
// @Param        id path string true "Category mapping ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /mappings/categories/{id} [delete]
func (h *MappingHandler) DeleteCategory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid category mapping ID")
		return
	}

	if err := h.mappingService.DeleteCategoryMapping(c.Request.Context(), tenantID, uuid.MustParse(uri.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
