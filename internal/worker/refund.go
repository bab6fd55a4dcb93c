package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
)

// RefundStore is the persistence surface the refund processor needs.
// Implemented by refunds.Repository.
type RefundStore interface {
	GetByID(ctx context.Context, id string) (*models.Refund, error)
	MarkProcessed(ctx context.Context, id string) (bool, error)
}

// RefundProcessor consumes refund jobs. Refunds have no failure path:
// after the simulated processing delay they always complete.
type RefundProcessor struct {
	refunds RefundStore
	broker  queue.Broker
	delays  DelaySource
	logger  *zap.Logger
}

// NewRefundProcessor creates a refund job processor.
func NewRefundProcessor(refunds RefundStore, broker queue.Broker, delays DelaySource, logger *zap.Logger) *RefundProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundProcessor{refunds: refunds, broker: broker, delays: delays, logger: logger}
}

// Process executes one refund job, mirroring the payment processor's
// drop-on-domain-error policy.
func (p *RefundProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.RefundJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal refund payload: %w", err)
	}

	refund, err := p.refunds.GetByID(ctx, payload.RefundID)
	if err != nil {
		p.logger.Error("load refund failed", zap.Error(err), zap.String("refund_id", payload.RefundID))
		return nil
	}
	if refund == nil {
		p.logger.Info("refund not found, dropping job", zap.String("refund_id", payload.RefundID))
		return nil
	}

	if err := sleep(ctx, p.delays.ProcessingDelay()); err != nil {
		return err
	}

	processed, err := p.refunds.MarkProcessed(ctx, refund.ID)
	if err != nil {
		p.logger.Error("mark refund processed failed", zap.Error(err), zap.String("refund_id", refund.ID))
		return nil
	}
	if !processed {
		p.logger.Info("refund already processed, dropping job", zap.String("refund_id", refund.ID))
		return nil
	}

	snapshot := models.PublicRefund{
		ID:        refund.ID,
		PaymentID: refund.PaymentID,
		Amount:    refund.Amount,
		Status:    models.RefundStatusProcessed,
	}
	body, err := json.Marshal(map[string]models.PublicRefund{"refund": snapshot})
	if err != nil {
		p.logger.Error("marshal webhook payload failed", zap.Error(err), zap.String("refund_id", refund.ID))
		return nil
	}

	webhookJob := queue.WebhookJobPayload{
		MerchantID: refund.MerchantID,
		Event:      models.EventRefundProcessed,
		Payload:    body,
		Attempt:    1,
	}
	if err := p.broker.Enqueue(ctx, queue.QueueWebhook, webhookJob); err != nil {
		p.logger.Error("enqueue webhook job failed", zap.Error(err), zap.String("refund_id", refund.ID))
		return nil
	}

	p.logger.Info("refund processed", zap.String("refund_id", refund.ID))
	return nil
}
