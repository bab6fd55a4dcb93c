package webhooks

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
	"github.com/stackpay/gateway/pkg/response"
)

// Handler handles webhook log endpoints for the merchant dashboard.
type Handler struct {
	repo   *Repository
	broker queue.Broker
	logger *zap.Logger
}

// NewHandler creates a webhooks handler.
func NewHandler(repo *Repository, broker queue.Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, broker: broker, logger: logger}
}

// List handles GET /api/v1/webhooks with limit/offset paging.
func (h *Handler) List(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	list, total, err := h.repo.ListByMerchant(c.Request.Context(), merchant.ID, limit, offset)
	if err != nil {
		h.logger.Error("list webhook logs failed", zap.Error(err), zap.String("merchant_id", merchant.ID))
		response.Internal(c, "Server Error")
		return
	}
	if list == nil {
		list = []models.WebhookLog{}
	}
	response.OK(c, gin.H{
		"data":   list,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Retry handles POST /api/v1/webhooks/:id/retry: resets the chosen log
// row and schedules a fresh delivery starting at attempt 1.
func (h *Handler) Retry(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)
	ctx := c.Request.Context()

	log, err := h.repo.GetByIDForMerchant(ctx, c.Param("id"), merchant.ID)
	if err != nil {
		h.logger.Error("load webhook log failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if log == nil {
		response.NotFound(c, "Webhook log not found")
		return
	}

	if err := h.repo.ResetForRetry(ctx, log.ID); err != nil {
		h.logger.Error("reset webhook log failed", zap.Error(err), zap.String("log_id", log.ID))
		response.Internal(c, "Server Error")
		return
	}

	job := queue.WebhookJobPayload{
		MerchantID: log.MerchantID,
		Event:      log.Event,
		Payload:    log.Payload,
		Attempt:    1,
	}
	if err := h.broker.Enqueue(ctx, queue.QueueWebhook, job); err != nil {
		h.logger.Error("enqueue webhook retry failed", zap.Error(err), zap.String("log_id", log.ID))
		response.Internal(c, "Server Error")
		return
	}

	response.OK(c, gin.H{"id": log.ID, "status": models.WebhookLogStatusPending, "message": "Webhook retry scheduled"})
}
