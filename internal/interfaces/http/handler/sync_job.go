package handler

import (
	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncJobHandler handles sync job API endpoints
type SyncJobHandler struct {
	BaseHandler
	jobService *appintegration.JobService
}

// NewSyncJobHandler creates a new SyncJobHandler
func NewSyncJobHandler(jobService *appintegration.JobService) *SyncJobHandler {
	return &SyncJobHandler{jobService: jobService}
}

// Enqueue godoc
// @ID           enqueueSyncJob
// @Summary      Enqueue a synchronization job
// @Description  Persists a pending job and pushes it onto its kind's queue
// @Tags         sync-jobs
// @Accept       json
// @Produce      json
// @Param        request body EnqueueJobRequest true "Job definition"
// @Success      202 {object} APIResponse[SyncJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /sync/jobs [post]
func (h *SyncJobHandler) Enqueue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req EnqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	marketplace := integration.MarketplaceCode(req.Marketplace)
	if !marketplace.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}
	kind := integration.SyncKind(req.Kind)
	if !kind.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown sync kind")
		return
	}

	opts, err := req.toOptions()
	if err != nil {
		h.BadRequest(c, "Invalid product ID in selection")
		return
	}

	job, err := h.jobService.Enqueue(c.Request.Context(), tenantID, accountID, marketplace, kind, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, toSyncJobResponse(job))
}

// Get godoc
// @ID           getSyncJob
// @Summary      Get a sync job
// @Description  Returns a job with its live status, progress and counters
// @Tags         sync-jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} APIResponse[SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /sync/jobs/{id} [get]
func (h *SyncJobHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	jobID := uuid.MustParse(uri.ID)

	job, err := h.jobService.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncJobResponse(job))
}

// List godoc
// @ID           listSyncJobs
// @Summary      List sync jobs
// @Description  Lists the tenant's jobs matching the filter, newest first
// @Tags         sync-jobs
// @Produce      json
// @Param        marketplace query string false "Marketplace code filter"
// @Param        kind query string false "Sync kind filter"
// @Param        status query string false "Job status filter"
// @Param        sort_by query string false "Sort field"
// @Param        sort_order query string false "Sort direction (ASC or DESC)"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]SyncJobResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/jobs [get]
func (h *SyncJobHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := integration.SyncJobFilter{
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
	if req.Kind != "" {
		kind := integration.SyncKind(req.Kind)
		if !kind.IsValid() {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown sync kind")
			return
		}
		filter.Kind = &kind
	}
	if req.Status != "" {
		status := integration.SyncJobStatus(req.Status)
		if !status.IsValid() {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown job status")
			return
		}
		filter.Status = &status
	}

	jobs, total, err := h.jobService.ListJobs(c.Request.Context(), tenantID, filter)
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
	h.SuccessWithMeta(c, toSyncJobResponses(jobs), total, page, pageSize)
}

// Logs godoc
// @ID           getSyncJobLogs
// @Summary      Get a job's per-item logs
// @Description  Returns the job's per-item log entries ordered by creation time
// @Tags         sync-jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]SyncLogResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /sync/jobs/{id}/logs [get]
func (h *SyncJobHandler) Logs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	jobID := uuid.MustParse(uri.ID)

	var paging dto.ListRequest
	paging.Page, paging.PageSize = 1, 50
	if err := c.ShouldBindQuery(&paging); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logs, total, err := h.jobService.GetJobLogs(c.Request.Context(), tenantID, jobID, paging.Page, paging.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toSyncLogResponses(logs), total, paging.Page, paging.PageSize)
}

// Cancel godoc
// @ID           cancelSyncJob
// @Summary      Cancel a sync job
// @Description  Forces a job into the CANCELLED terminal state
// @Tags         sync-jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} APIResponse[SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sync/jobs/{id}/cancel [post]
func (h *SyncJobHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	jobID := uuid.MustParse(uri.ID)

	job, err := h.jobService.Cancel(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncJobResponse(job))
}

// Retry godoc
// @ID           retrySyncJob
// @Summary      Retry a failed or cancelled job
// @Description  Resets the job and re-enqueues it for a fresh pass over the same selection
// @Tags         sync-jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      202 {object} APIResponse[SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sync/jobs/{id}/retry [post]
func (h *SyncJobHandler) Retry(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	jobID := uuid.MustParse(uri.ID)

	job, err := h.jobService.Retry(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, toSyncJobResponse(job))
}
