package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appintegration "github.com/furlanettoeduardo/ERP-PRS-sub000/internal/application/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/cache"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/dto"
)

// webhookDedupTTL is how long a delivery fingerprint blocks redeliveries.
const webhookDedupTTL = 24 * time.Hour

// signatureHeaders maps each marketplace to the header its deliveries carry.
var signatureHeaders = map[integration.MarketplaceCode]string{
	integration.MarketplaceMercadoLivre: "X-Notification-Token",
	integration.MarketplaceShopee:       "Authorization",
	integration.MarketplaceWooCommerce:  "X-WC-Webhook-Signature",
	integration.MarketplaceAmazon:       "X-Amz-Notification-Signature",
}

// WebhookHandler receives inbound marketplace notifications. Deliveries are
// authenticated by signature, not JWT: the tenant and account identity is
// baked into the callback URL at registration time.
type WebhookHandler struct {
	BaseHandler
	accountService *appintegration.AccountService
	jobService     *appintegration.JobService
	// secrets holds the per-marketplace verification secret from config.
	secrets map[integration.MarketplaceCode]string
	deduper cache.IdempotencyStore
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	accountService *appintegration.AccountService,
	jobService *appintegration.JobService,
	secrets map[integration.MarketplaceCode]string,
	deduper cache.IdempotencyStore,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		accountService: accountService,
		jobService:     jobService,
		secrets:        secrets,
		deduper:        deduper,
		logger:         logger,
	}
}

// webhookURI binds the identity segments of the callback URL.
type webhookURI struct {
	Code      string `uri:"code" binding:"required"`
	TenantID  string `uri:"tenantId" binding:"required,uuid"`
	AccountID string `uri:"accountId" binding:"required,uuid"`
}

// webhookNotification is the marketplace-agnostic subset of a delivery body.
// Unknown fields are ignored; each platform wraps its payload differently.
type webhookNotification struct {
	Topic    string `json:"topic"`
	Resource string `json:"resource"`
	SKU      string `json:"sku"`
}

// Receive godoc
// @ID           receiveWebhook
// @Summary      Receive a marketplace notification
// @Description  Verifies the delivery signature and enqueues an import job to pull the changed data
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        code path string true "Marketplace code"
// @Param        tenantId path string true "Tenant ID"
// @Param        accountId path string true "Account ID"
// @Success      202 {object} APIResponse[SyncJobResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      400 {object} ErrorResponse
// @Router       /webhooks/{code}/{tenantId}/{accountId} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var uri webhookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid webhook path")
		return
	}
	code := integration.MarketplaceCode(uri.Code)
	if !code.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Unknown marketplace code")
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Unreadable payload")
		return
	}

	signature := c.GetHeader(signatureHeaders[code])
	if err := h.accountService.VerifyWebhookSignature(code, payload, signature, h.secrets[code]); err != nil {
		h.logger.Warn("Webhook signature rejected",
			zap.String("marketplace", string(code)),
			zap.String("remote_addr", c.ClientIP()),
		)
		h.HandleError(c, err)
		return
	}

	var note webhookNotification
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &note); err != nil {
			h.BadRequest(c, "Invalid JSON payload")
			return
		}
	}

	// Platforms redeliver on timeout; a repeated body for the same account
	// within the window is acknowledged without enqueueing another job.
	if h.deduper != nil {
		fresh, err := h.deduper.MarkProcessed(c.Request.Context(), deliveryFingerprint(uri, payload), webhookDedupTTL)
		if err != nil {
			h.logger.Warn("Webhook dedup check failed", zap.Error(err))
		} else if !fresh {
			h.logger.Info("Duplicate webhook delivery dropped",
				zap.String("marketplace", string(code)),
				zap.String("topic", note.Topic),
			)
			c.Status(http.StatusAccepted)
			return
		}
	}

	// External state changed; pull it back in. The changed SKU narrows the
	// import when the platform includes one.
	opts := integration.SyncJobOptions{}
	if note.SKU != "" {
		opts.SKUs = []string{note.SKU}
	}

	job, err := h.jobService.Enqueue(
		c.Request.Context(),
		uuid.MustParse(uri.TenantID),
		uuid.MustParse(uri.AccountID),
		code,
		integration.SyncKindImport,
		opts,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("Webhook accepted",
		zap.String("marketplace", string(code)),
		zap.String("topic", note.Topic),
		zap.String("job_id", job.ID.String()),
	)
	h.Accepted(c, toSyncJobResponse(job))
}

// deliveryFingerprint derives a stable dedup key from the delivery identity
// and body. Platforms that resend include the identical body, so the hash
// collapses redeliveries without needing a platform-specific delivery ID.
func deliveryFingerprint(uri webhookURI, payload []byte) string {
	sum := sha256.New()
	sum.Write([]byte(uri.Code))
	sum.Write([]byte(uri.TenantID))
	sum.Write([]byte(uri.AccountID))
	sum.Write(payload)
	return hex.EncodeToString(sum.Sum(nil))
}
