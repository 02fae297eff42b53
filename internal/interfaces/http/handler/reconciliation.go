package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

// ReconciliationHandler handles reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconService *appintegration.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconService *appintegration.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconService: reconService}
}

// Reconcile godoc
// @ID           runReconciliation
// @Summary      Run a reconciliation pass
// @Description  Compares local state against the marketplace and reports field-level divergences
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        request body ReconcileRequest true "Run parameters"
// @Success      200 {object} APIResponse[integration.ReconcileReport]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /reconcile [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	code := integration.MarketplaceCode(req.Marketplace)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}
	entity := integration.ReconcileEntityType(req.EntityType)
	if req.EntityType == "" {
		entity = integration.ReconcileEntityAll
	}
	if !entity.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown entity type")
		return
	}

	report, err := h.reconService.Reconcile(c.Request.Context(), appintegration.ReconcileInput{
		TenantID:       tenantID,
		AccountID:      uuid.MustParse(req.AccountID),
		Marketplace:    code,
		EntityType:     entity,
		SKUs:           req.SKUs,
		FixDifferences: req.FixDifferences,
		ReportOnly:     req.ReportOnly,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// Conflicts godoc
// @ID           listPendingConflicts
// @Summary      List unresolved sync conflicts
// @Tags         reconciliation
// @Produce      json
// @Param        marketplace query string true "Marketplace code"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]SyncConflictResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /reconcile/conflicts [get]
func (h *ReconciliationHandler) Conflicts(c *gin.Context) {
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

	var paging dto.ListRequest
	paging.Page, paging.PageSize = 1, 20
	if err := c.ShouldBindQuery(&paging); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	conflicts, total, err := h.reconService.PendingConflicts(c.Request.Context(), tenantID, code, paging.Page, paging.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toSyncConflictResponses(conflicts), total, paging.Page, paging.PageSize)
}

// Resolve godoc
// @ID           resolveConflict
// @Summary      Resolve a sync conflict
// @Description  Closes the conflict with the chosen side's snapshot value; resolution is one-shot
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        id path string true "Conflict ID"
// @Param        request body ResolveConflictRequest true "Winning side"
// @Success      200 {object} APIResponse[SyncConflictResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /reconcile/conflicts/{id}/resolve [post]
func (h *ReconciliationHandler) Resolve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	var req ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	conflict, err := h.reconService.ResolveConflict(
		c.Request.Context(),
		tenantID,
		uuid.MustParse(uri.ID),
		integration.ResolutionChoice(req.Resolution),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncConflictResponse(conflict))
}
