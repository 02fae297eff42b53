package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

// PriceRuleHandler handles price rule API endpoints
type PriceRuleHandler struct {
	BaseHandler
	mappingService *appintegration.MappingService
}

// NewPriceRuleHandler creates a new PriceRuleHandler
func NewPriceRuleHandler(mappingService *appintegration.MappingService) *PriceRuleHandler {
	return &PriceRuleHandler{mappingService: mappingService}
}

// Create godoc
// @ID           createPriceRule
// @Summary      Create a price rule
// @Description  Adds a rule to the tenant's pricing chain; rules apply in ascending priority order
// @Tags         price-rules
// @Accept       json
// @Produce      json
// @Param        request body SavePriceRuleRequest true "Rule fields"
// @Success      201 {object} APIResponse[PriceRuleResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /price-rules [post]
func (h *PriceRuleHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req SavePriceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := integration.NewPriceRule(tenantID, req.Name, integration.PriceFormula(req.Formula), toDecimal(req.Value), req.Priority)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := applyPriceRuleRequest(rule, &req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	if err := h.mappingService.SavePriceRule(c.Request.Context(), rule); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPriceRuleResponse(rule))
}

// Get godoc
// @ID           getPriceRule
// @Summary      Get a price rule
// @Tags         price-rules
// @Produce      json
// @Param        id path string true "Rule ID"
// @Success      200 {object} APIResponse[PriceRuleResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /price-rules/{id} [get]
func (h *PriceRuleHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	rule, err := h.mappingService.GetPriceRule(c.Request.Context(), tenantID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPriceRuleResponse(rule))
}

// List godoc
// @ID           listPriceRules
// @Summary      List price rules
// @Description  Returns the tenant's rules ordered by ascending priority
// @Tags         price-rules
// @Produce      json
// @Success      200 {object} APIResponse[[]PriceRuleResponse]
// @Router       /price-rules [get]
func (h *PriceRuleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	rules, err := h.mappingService.ListPriceRules(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPriceRuleResponses(rules))
}

// Update godoc
// @ID           updatePriceRule
// @Summary      Update a price rule
// @Tags         price-rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID"
// @Param        request body SavePriceRuleRequest true "Rule fields"
// @Success      200 {object} APIResponse[PriceRuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /price-rules/{id} [put]
func (h *PriceRuleHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	var req SavePriceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.mappingService.GetPriceRule(c.Request.Context(), tenantID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rule.Name = req.Name
	rule.Formula = integration.PriceFormula(req.Formula)
	rule.Value = toDecimal(req.Value)
	rule.Priority = req.Priority
	rule.Marketplace = nil
	rule.MinPrice = nil
	rule.MaxPrice = nil
	if err := applyPriceRuleRequest(rule, &req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	if err := h.mappingService.SavePriceRule(c.Request.Context(), rule); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPriceRuleResponse(rule))
}

// Delete godoc
// @ID           deletePriceRule
// @Summary      Delete a price rule
// @Tags         price-rules
// @Produce      json
// @Param        id path string true "Rule ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /price-rules/{id} [delete]
func (h *PriceRuleHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	if err := h.mappingService.DeletePriceRule(c.Request.Context(), tenantID, uuid.MustParse(uri.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Preview godoc
// @ID           previewAdjustedPrice
// @Summary      Preview a product's published price
// @Description  Runs the pricing chain for a product without calling the marketplace
// @Tags         price-rules
// @Accept       json
// @Produce      json
// @Param        request body PricePreviewRequest true "Preview input"
// @Success      200 {object} APIResponse[PricePreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /price-rules/preview [post]
func (h *PriceRuleHandler) Preview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req PricePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	code := integration.MarketplaceCode(req.Marketplace)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	var basePrice *decimal.Decimal
	if req.BasePrice != nil {
		basePrice = toDecimalPtr(*req.BasePrice)
	}

	finalPrice, applied, err := h.mappingService.PreviewAdjustedPrice(
		c.Request.Context(),
		tenantID,
		uuid.MustParse(req.ProductID),
		code,
		basePrice,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	final, _ := finalPrice.Float64()
	h.Success(c, PricePreviewResponse{
		ProductID:    req.ProductID,
		Marketplace:  req.Marketplace,
		FinalPrice:   final,
		AppliedRules: toAppliedRuleResponses(applied),
	})
}

// applyPriceRuleRequest copies the optional fields of the request onto the rule.
func applyPriceRuleRequest(rule *integration.PriceRule, req *SavePriceRuleRequest) error {
	if req.Marketplace != "" {
		code := integration.MarketplaceCode(req.Marketplace)
		if !code.IsValid() {
			return integration.ErrInvalidMarketplaceCode
		}
		rule.Marketplace = &code
	}
	if req.MinPrice != nil {
		rule.MinPrice = toDecimalPtr(*req.MinPrice)
	}
	if req.MaxPrice != nil {
		rule.MaxPrice = toDecimalPtr(*req.MaxPrice)
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	return nil
}
