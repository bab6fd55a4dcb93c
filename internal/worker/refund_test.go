package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
)

func pendingRefund(id string) *models.Refund {
	return &models.Refund{
		ID:         id,
		PaymentID:  "pay_1",
		MerchantID: "mrch_1",
		Amount:     10000,
		Status:     models.RefundStatusPending,
	}
}

func TestRefundProcessorProcesses(t *testing.T) {
	store := newFakeRefundStore(pendingRefund("rfnd_1"))
	broker := &fakeBroker{}
	p := NewRefundProcessor(store, broker, FixedDelay{}, nil)

	err := p.Process(context.Background(), refundJob("rfnd_1"))
	require.NoError(t, err)

	assert.True(t, store.processed["rfnd_1"])

	job, ok := broker.webhookJobAt(0)
	require.True(t, ok)
	assert.Equal(t, queue.QueueWebhook, broker.jobs[0].Queue)
	assert.Equal(t, models.EventRefundProcessed, job.Event)
	assert.Equal(t, "mrch_1", job.MerchantID)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &body))
	refund, ok := body["refund"]
	require.True(t, ok)
	assert.Equal(t, "rfnd_1", refund["id"])
	assert.Equal(t, "pay_1", refund["payment_id"])
	assert.Equal(t, models.RefundStatusProcessed, refund["status"])
	assert.NotContains(t, refund, "merchant_id")
}

func TestRefundProcessorAlreadyProcessed(t *testing.T) {
	done := pendingRefund("rfnd_1")
	done.Status = models.RefundStatusProcessed
	store := newFakeRefundStore(done)
	broker := &fakeBroker{}
	p := NewRefundProcessor(store, broker, FixedDelay{}, nil)

	err := p.Process(context.Background(), refundJob("rfnd_1"))
	require.NoError(t, err)
	assert.Empty(t, broker.jobs)
}

func TestRefundProcessorUnknownRefund(t *testing.T) {
	store := newFakeRefundStore()
	broker := &fakeBroker{}
	p := NewRefundProcessor(store, broker, FixedDelay{}, nil)

	err := p.Process(context.Background(), refundJob("rfnd_missing"))
	require.NoError(t, err)
	assert.Empty(t, broker.jobs)
}
