package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/internal/webhooks"
	"github.com/stackpay/gateway/pkg/queue"
)

// DeliveryTimeout bounds one outbound webhook POST.
const DeliveryTimeout = 5 * time.Second

// MerchantStore resolves the delivery target for a merchant.
// Implemented by merchants.Repository.
type MerchantStore interface {
	GetByID(ctx context.Context, id string) (*models.Merchant, error)
}

// WebhookLogStore records delivery attempts.
// Implemented by webhooks.Repository.
type WebhookLogStore interface {
	AppendAttempt(ctx context.Context, merchantID, event string, payload json.RawMessage, attempt int) (string, error)
	MarkResult(ctx context.Context, id, status string, responseCode int) error
}

// WebhookProcessor signs and delivers event payloads to merchant
// endpoints, appending one log row per attempt and re-enqueueing failed
// deliveries with a schedule-indexed delay up to the attempt bound.
type WebhookProcessor struct {
	merchants MerchantStore
	logs      WebhookLogStore
	broker    queue.Broker
	schedule  RetrySchedule
	client    *http.Client
	logger    *zap.Logger
}

// NewWebhookProcessor creates a webhook delivery processor.
func NewWebhookProcessor(merchants MerchantStore, logs WebhookLogStore, broker queue.Broker, schedule RetrySchedule, logger *zap.Logger) *WebhookProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookProcessor{
		merchants: merchants,
		logs:      logs,
		broker:    broker,
		schedule:  schedule,
		client:    &http.Client{Timeout: DeliveryTimeout},
		logger:    logger,
	}
}

// Process executes one delivery attempt.
func (p *WebhookProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.WebhookJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal webhook payload: %w", err)
	}
	if payload.Attempt < 1 {
		payload.Attempt = 1
	}

	merchant, err := p.merchants.GetByID(ctx, payload.MerchantID)
	if err != nil {
		return fmt.Errorf("resolve merchant %s: %w", payload.MerchantID, err)
	}
	if merchant == nil || merchant.WebhookURL == "" {
		// Merchant has not opted into webhooks: drop without a log row.
		p.logger.Debug("no webhook url configured", zap.String("merchant_id", payload.MerchantID))
		return nil
	}

	signature := webhooks.Sign(merchant.WebhookSecret, payload.Payload)

	logID, err := p.logs.AppendAttempt(ctx, merchant.ID, payload.Event, payload.Payload, payload.Attempt)
	if err != nil {
		return fmt.Errorf("append webhook log: %w", err)
	}

	p.logger.Info("delivering webhook",
		zap.String("event", payload.Event),
		zap.String("url", merchant.WebhookURL),
		zap.Int("attempt", payload.Attempt))

	code, delivered := p.post(ctx, merchant.WebhookURL, signature, payload.Payload)
	if delivered {
		if err := p.logs.MarkResult(ctx, logID, models.WebhookLogStatusSuccess, code); err != nil {
			p.logger.Error("mark webhook success failed", zap.Error(err), zap.String("log_id", logID))
		}
		return nil
	}

	// The attempt's row ends terminal instead of lingering pending, so
	// operators can tell an exhausted delivery from an in-flight one.
	if err := p.logs.MarkResult(ctx, logID, models.WebhookLogStatusFailed, code); err != nil {
		p.logger.Error("mark webhook failure failed", zap.Error(err), zap.String("log_id", logID))
	}

	delay, ok := p.schedule.NextDelay(payload.Attempt)
	if !ok {
		p.logger.Warn("webhook delivery exhausted",
			zap.String("event", payload.Event),
			zap.String("merchant_id", merchant.ID),
			zap.Int("attempts", payload.Attempt))
		return nil
	}

	next := payload
	next.Attempt++
	if err := p.broker.EnqueueDelayed(ctx, queue.QueueWebhook, next, delay); err != nil {
		p.logger.Error("re-enqueue webhook failed", zap.Error(err), zap.String("event", payload.Event))
		return nil
	}
	p.logger.Info("webhook retry scheduled",
		zap.String("event", payload.Event),
		zap.Int("next_attempt", next.Attempt),
		zap.Duration("delay", delay))
	return nil
}

// post performs the signed delivery. Returns the HTTP status (0 for
// transport errors) and whether the merchant accepted with a 2xx.
func (p *WebhookProcessor) post(ctx context.Context, url, signature string, body []byte) (int, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, DeliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("build webhook request failed", zap.Error(err), zap.String("url", url))
		return 0, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhooks.SignatureHeader, signature)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("webhook delivery error", zap.Error(err), zap.String("url", url))
		return 0, false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, resp.StatusCode >= 200 && resp.StatusCode < 300
}
