package payments

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/idempotency"
	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/internal/orders"
	"github.com/stackpay/gateway/pkg/queue"
	"github.com/stackpay/gateway/pkg/response"
	"github.com/stackpay/gateway/pkg/utils"
)

// Handler handles payment HTTP endpoints. Creation is asynchronous: the
// payment is inserted pending and a job referencing it is enqueued; the
// worker determines the outcome.
type Handler struct {
	repo      *Repository
	orderRepo *orders.Repository
	idemRepo  *idempotency.Repository
	broker    queue.Broker
	logger    *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(repo *Repository, orderRepo *orders.Repository, idemRepo *idempotency.Repository, broker queue.Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, orderRepo: orderRepo, idemRepo: idemRepo, broker: broker, logger: logger}
}

type cardDetails struct {
	Number string `json:"number"`
}

type createPaymentRequest struct {
	OrderID string       `json:"order_id"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa"`
	Card    *cardDetails `json:"card"`
}

// Create handles POST /api/v1/payments (authenticated, idempotency-guarded).
func (h *Handler) Create(c *gin.Context) {
	h.create(c, true)
}

// CreatePublic handles POST /api/v1/payments/public, used by the hosted
// checkout page which holds no merchant credentials.
func (h *Handler) CreatePublic(c *gin.Context) {
	h.create(c, false)
}

func (h *Handler) create(c *gin.Context, requiresAuth bool) {
	ctx := c.Request.Context()

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}

	order, err := h.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		h.logger.Error("load order failed", zap.Error(err), zap.String("order_id", req.OrderID))
		response.Internal(c, "Server Error")
		return
	}
	if order == nil {
		response.NotFound(c, "Order not found")
		return
	}
	if requiresAuth && order.MerchantID != middleware.MerchantFrom(c).ID {
		response.Unauthorized(c, "Order mismatch")
		return
	}

	p := &models.Payment{
		ID:         utils.GenerateID("pay_"),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     req.Method,
		Status:     models.PaymentStatusPending,
	}
	switch req.Method {
	case models.PaymentMethodUPI:
		if !ValidateVPA(req.VPA) {
			response.BadRequest(c, response.CodeInvalidVPA, "Invalid VPA")
			return
		}
		p.VPA = req.VPA
	case models.PaymentMethodCard:
		if req.Card == nil || !ValidateLuhn(req.Card.Number) {
			response.BadRequest(c, response.CodeInvalidCard, "Invalid Card")
			return
		}
		p.CardNetwork = CardNetwork(req.Card.Number)
		p.CardLast4 = CardLast4(req.Card.Number)
	default:
		response.BadRequest(c, response.CodeBadRequest, "Invalid method")
		return
	}

	if err := h.repo.Create(ctx, p); err != nil {
		h.logger.Error("create payment failed", zap.Error(err), zap.String("order_id", order.ID))
		response.Internal(c, "Server Error")
		return
	}

	if err := h.broker.Enqueue(ctx, queue.QueuePayment, queue.PaymentJobPayload{PaymentID: p.ID}); err != nil {
		h.logger.Error("enqueue payment job failed", zap.Error(err), zap.String("payment_id", p.ID))
		response.Internal(c, "Server Error")
		return
	}

	if key := middleware.IdempotencyKeyFrom(c); key != "" {
		body, err := json.Marshal(p)
		if err == nil {
			err = h.idemRepo.Store(ctx, key, p.MerchantID, body)
		}
		if err != nil {
			// The payment is already created and queued; losing the
			// replay record only costs a duplicate on client retry.
			h.logger.Error("store idempotency key failed", zap.Error(err), zap.String("payment_id", p.ID))
		}
	}

	response.Created(c, p)
}

// GetPublic handles GET /api/v1/payments/:id/public, the status polling
// endpoint for the checkout widget.
func (h *Handler) GetPublic(c *gin.Context) {
	p, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("load payment failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if p == nil {
		response.NotFound(c, "Payment not found")
		return
	}
	response.OK(c, p.Public())
}

// List handles GET /api/v1/payments for the merchant dashboard.
func (h *Handler) List(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)
	list, err := h.repo.ListByMerchant(c.Request.Context(), merchant.ID)
	if err != nil {
		h.logger.Error("list payments failed", zap.Error(err), zap.String("merchant_id", merchant.ID))
		response.Internal(c, "Server Error")
		return
	}
	if list == nil {
		list = []models.Payment{}
	}
	response.OK(c, list)
}

// Capture handles POST /api/v1/payments/:id/capture. Capture succeeds
// only once, and only from status success.
func (h *Handler) Capture(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)
	p, err := h.repo.Capture(c.Request.Context(), c.Param("id"), merchant.ID)
	if err != nil {
		h.logger.Error("capture payment failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if p == nil {
		response.BadRequest(c, response.CodeBadRequest, "Payment not in capturable state")
		return
	}
	response.OK(c, p)
}
