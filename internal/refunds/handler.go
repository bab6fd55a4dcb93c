package refunds

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
	"github.com/stackpay/gateway/pkg/response"
	"github.com/stackpay/gateway/pkg/utils"
)

// Handler handles refund HTTP endpoints.
type Handler struct {
	repo   *Repository
	broker queue.Broker
	logger *zap.Logger
}

// NewHandler creates a refunds handler.
func NewHandler(repo *Repository, broker queue.Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, broker: broker, logger: logger}
}

type createRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// Create handles POST /api/v1/payments/:id/refunds.
func (h *Handler) Create(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)
	paymentID := c.Param("id")

	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		response.BadRequest(c, response.CodeBadRequest, "amount must be positive")
		return
	}

	ref := &models.Refund{
		ID:         utils.GenerateID("rfnd_"),
		PaymentID:  paymentID,
		MerchantID: merchant.ID,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Status:     models.RefundStatusPending,
	}
	err := h.repo.CreateChecked(c.Request.Context(), ref)
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		response.NotFound(c, "Payment not found")
		return
	case errors.Is(err, ErrPaymentNotSuccessful):
		response.BadRequest(c, response.CodeBadRequest, "Payment not successful")
		return
	case errors.Is(err, ErrExceedsRefundable):
		response.BadRequest(c, response.CodeBadRequest, "Refund amount exceeds available amount")
		return
	case err != nil:
		h.logger.Error("create refund failed", zap.Error(err), zap.String("payment_id", paymentID))
		response.Internal(c, "Server Error")
		return
	}

	if err := h.broker.Enqueue(c.Request.Context(), queue.QueueRefund, queue.RefundJobPayload{RefundID: ref.ID}); err != nil {
		h.logger.Error("enqueue refund job failed", zap.Error(err), zap.String("refund_id", ref.ID))
		response.Internal(c, "Server Error")
		return
	}

	response.Created(c, ref)
}

// Get handles GET /api/v1/refunds/:id.
func (h *Handler) Get(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)
	ref, err := h.repo.GetByIDForMerchant(c.Request.Context(), c.Param("id"), merchant.ID)
	if err != nil {
		h.logger.Error("load refund failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if ref == nil {
		response.NotFound(c, "Refund not found")
		return
	}
	response.OK(c, ref)
}
