package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
)

// PaymentStore is the persistence surface the payment processor needs.
// Implemented by payments.Repository.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	TransitionFromPending(ctx context.Context, id, status, errorCode, errorDescription string) (bool, error)
}

// PaymentProcessor consumes payment jobs: simulate the acquirer call,
// transition the payment to a terminal status, emit a webhook event.
type PaymentProcessor struct {
	payments PaymentStore
	broker   queue.Broker
	outcome  OutcomeDecider
	delays   DelaySource
	logger   *zap.Logger
}

// NewPaymentProcessor creates a payment job processor.
func NewPaymentProcessor(payments PaymentStore, broker queue.Broker, outcome OutcomeDecider, delays DelaySource, logger *zap.Logger) *PaymentProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentProcessor{payments: payments, broker: broker, outcome: outcome, delays: delays, logger: logger}
}

// Process executes one payment job. Domain failures are logged and the
// job dropped; only malformed envelopes and shutdown propagate an error.
func (p *PaymentProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.PaymentJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payment payload: %w", err)
	}

	payment, err := p.payments.GetByID(ctx, payload.PaymentID)
	if err != nil {
		p.logger.Error("load payment failed", zap.Error(err), zap.String("payment_id", payload.PaymentID))
		return nil
	}
	if payment == nil {
		// Deleted or malformed id; redelivering forever would be wasteful.
		p.logger.Info("payment not found, dropping job", zap.String("payment_id", payload.PaymentID))
		return nil
	}

	if err := sleep(ctx, p.delays.ProcessingDelay()); err != nil {
		return err
	}

	status := models.PaymentStatusSuccess
	errorCode, errorDescription := "", ""
	if !p.outcome.Decide(payment.Method) {
		status = models.PaymentStatusFailed
		errorCode = models.ErrorCodePaymentFailed
		errorDescription = models.ErrorDescriptionPaymentFailed
	}

	transitioned, err := p.payments.TransitionFromPending(ctx, payment.ID, status, errorCode, errorDescription)
	if err != nil {
		p.logger.Error("payment transition failed", zap.Error(err), zap.String("payment_id", payment.ID))
		return nil
	}
	if !transitioned {
		// Already terminal: a redelivered job must not re-apply or re-notify.
		p.logger.Info("payment already terminal, dropping job", zap.String("payment_id", payment.ID))
		return nil
	}

	event := models.EventPaymentSuccess
	if status == models.PaymentStatusFailed {
		event = models.EventPaymentFailed
	}
	snapshot := payment.Public()
	snapshot.Status = status
	body, err := json.Marshal(map[string]models.PublicPayment{"payment": snapshot})
	if err != nil {
		p.logger.Error("marshal webhook payload failed", zap.Error(err), zap.String("payment_id", payment.ID))
		return nil
	}

	webhookJob := queue.WebhookJobPayload{
		MerchantID: payment.MerchantID,
		Event:      event,
		Payload:    body,
		Attempt:    1,
	}
	if err := p.broker.Enqueue(ctx, queue.QueueWebhook, webhookJob); err != nil {
		p.logger.Error("enqueue webhook job failed", zap.Error(err), zap.String("payment_id", payment.ID))
		return nil
	}

	p.logger.Info("payment processed",
		zap.String("payment_id", payment.ID),
		zap.String("status", status),
		zap.String("method", payment.Method))
	return nil
}
