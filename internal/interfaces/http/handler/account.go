package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

// AccountHandler handles marketplace account and credential API endpoints
type AccountHandler struct {
	BaseHandler
	accountService *appintegration.AccountService
	registry       integration.AdapterRegistry
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *appintegration.AccountService, registry integration.AdapterRegistry) *AccountHandler {
	return &AccountHandler{accountService: accountService, registry: registry}
}

// accountURI binds the marketplace code and account ID path segments.
type accountURI struct {
	Code      string `uri:"code" binding:"required"`
	AccountID string `uri:"accountId" binding:"required,uuid"`
}

// ListMarketplaces godoc
// @ID           listMarketplaces
// @Summary      List registered marketplaces
// @Description  Returns every adapter the server was started with, and the credential shape each expects
// @Tags         accounts
// @Produce      json
// @Success      200 {object} APIResponse[[]MarketplaceResponse]
// @Router       /marketplaces [get]
func (h *AccountHandler) ListMarketplaces(c *gin.Context) {
	adapters := h.registry.List()
	out := make([]MarketplaceResponse, 0, len(adapters))
	for _, a := range adapters {
		code := a.Code()
		out = append(out, MarketplaceResponse{
			Code:           string(code),
			Name:           code.DisplayName(),
			CredentialKind: string(integration.ExpectedCredentialKind(code)),
		})
	}
	h.Success(c, out)
}

// Connect godoc
// @ID           connectAccount
// @Summary      Connect a marketplace account
// @Description  Stores the credential bundle after verifying it against the live marketplace API
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        accountId path string true "Account ID"
// @Param        request body ConnectAccountRequest true "Credential bundle"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /marketplaces/{code}/accounts/{accountId}/credentials [put]
func (h *AccountHandler) Connect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid marketplace or account ID")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	var req ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err = h.accountService.Connect(c.Request.Context(), tenantID, uuid.MustParse(uri.AccountID), code, &req.Credentials)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Validate godoc
// @ID           validateAccount
// @Summary      Validate stored credentials
// @Description  Re-checks the account's stored credentials against the live marketplace API
// @Tags         accounts
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        accountId path string true "Account ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /marketplaces/{code}/accounts/{accountId}/credentials/validate [post]
func (h *AccountHandler) Validate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid marketplace or account ID")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	if err := h.accountService.Validate(c.Request.Context(), tenantID, uuid.MustParse(uri.AccountID), code); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Disconnect godoc
// @ID           disconnectAccount
// @Summary      Disconnect a marketplace account
// @Description  Deletes the stored credential bundle; running jobs for the account fail on their next API call
// @Tags         accounts
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        accountId path string true "Account ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /marketplaces/{code}/accounts/{accountId}/credentials [delete]
func (h *AccountHandler) Disconnect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid marketplace or account ID")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	if err := h.accountService.Disconnect(c.Request.Context(), tenantID, uuid.MustParse(uri.AccountID), code); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterWebhook godoc
// @ID           registerWebhook
// @Summary      Register a webhook subscription
// @Description  Subscribes the callback URL to a topic on the marketplace
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        accountId path string true "Account ID"
// @Param        request body RegisterWebhookRequest true "Subscription"
// @Success      201 {object} APIResponse[WebhookSubscriptionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /marketplaces/{code}/accounts/{accountId}/webhooks [post]
func (h *AccountHandler) RegisterWebhook(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid marketplace or account ID")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	var req RegisterWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.accountService.RegisterWebhook(
		c.Request.Context(),
		tenantID,
		uuid.MustParse(uri.AccountID),
		code,
		req.URL, req.Topic, req.Secret,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toWebhookSubscriptionResponse(sub))
}

// RemoveWebhook godoc
// @ID           removeWebhook
// @Summary      Remove a webhook subscription
// @Tags         accounts
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        accountId path string true "Account ID"
// @Param        webhookId path string true "Webhook ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /marketplaces/{code}/accounts/{accountId}/webhooks/{webhookId} [delete]
func (h *AccountHandler) RemoveWebhook(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid marketplace or account ID")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}
	webhookID := c.Param("webhookId")
	if webhookID == "" {
		h.BadRequest(c, "Invalid webhook ID")
		return
	}

	if err := h.accountService.RemoveWebhook(c.Request.Context(), tenantID, uuid.MustParse(uri.AccountID), code, webhookID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
