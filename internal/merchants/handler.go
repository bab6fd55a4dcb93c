package merchants

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/pkg/response"
)

// Handler handles merchant configuration endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a merchants handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

type webhookConfigRequest struct {
	WebhookURL string `json:"webhook_url"`
}

// ConfigureWebhook handles POST /api/v1/merchants/webhook-config.
// An empty URL opts the merchant out of webhook delivery.
func (h *Handler) ConfigureWebhook(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)

	var req webhookConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}

	if err := h.repo.UpdateWebhookURL(c.Request.Context(), merchant.ID, req.WebhookURL); err != nil {
		h.logger.Error("update webhook url failed", zap.Error(err), zap.String("merchant_id", merchant.ID))
		response.Internal(c, "Server Error")
		return
	}
	response.OK(c, gin.H{"success": true})
}

// GetTestMerchant handles GET /api/v1/test/merchant. It exposes the
// seeded test merchant's credentials for integration tests.
func (h *Handler) GetTestMerchant(c *gin.Context) {
	m, err := h.repo.GetByEmail(c.Request.Context(), "test@example.com")
	if err != nil {
		h.logger.Error("load test merchant failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if m == nil {
		response.NotFound(c, "test merchant not seeded")
		return
	}
	response.OK(c, gin.H{
		"id":             m.ID,
		"email":          m.Email,
		"api_key":        m.APIKey,
		"webhook_secret": m.WebhookSecret,
	})
}
