package worker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/internal/webhooks"
	"github.com/stackpay/gateway/pkg/queue"
)

func deliveryPayload() queue.WebhookJobPayload {
	return queue.WebhookJobPayload{
		MerchantID: "mrch_1",
		Event:      models.EventPaymentSuccess,
		Payload:    []byte(`{"payment":{"id":"pay_1"}}`),
		Attempt:    1,
	}
}

func TestWebhookProcessorDelivers(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(webhooks.SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	merchants := newFakeMerchantStore(&models.Merchant{
		ID:            "mrch_1",
		WebhookURL:    server.URL,
		WebhookSecret: "whsec_test",
	})
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	err := p.Process(context.Background(), webhookJob(deliveryPayload()))
	require.NoError(t, err)

	// Signature covers the exact delivered bytes.
	assert.Equal(t, []byte(`{"payment":{"id":"pay_1"}}`), gotBody)
	assert.True(t, webhooks.Verify("whsec_test", gotBody, gotSignature))

	require.Len(t, logs.attempts, 1)
	row := logs.attempts[0]
	assert.Equal(t, models.WebhookLogStatusSuccess, row.Status)
	assert.Equal(t, http.StatusOK, row.ResponseCode)
	assert.Equal(t, models.EventPaymentSuccess, row.Event)
	assert.Equal(t, 1, row.Attempt)

	assert.Empty(t, broker.jobs, "a delivered webhook must not be re-enqueued")
}

func TestWebhookProcessorFailureSchedulesRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	merchants := newFakeMerchantStore(&models.Merchant{
		ID:            "mrch_1",
		WebhookURL:    server.URL,
		WebhookSecret: "whsec_test",
	})
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	err := p.Process(context.Background(), webhookJob(deliveryPayload()))
	require.NoError(t, err)

	require.Len(t, logs.attempts, 1)
	assert.Equal(t, models.WebhookLogStatusFailed, logs.attempts[0].Status)
	assert.Equal(t, http.StatusInternalServerError, logs.attempts[0].ResponseCode)

	require.Len(t, broker.jobs, 1)
	assert.Equal(t, queue.QueueWebhook, broker.jobs[0].Queue)
	assert.Equal(t, 60*time.Second, broker.jobs[0].Delay)

	next, ok := broker.jobs[0].Payload.(queue.WebhookJobPayload)
	require.True(t, ok)
	assert.Equal(t, 2, next.Attempt)
	assert.Equal(t, []byte(`{"payment":{"id":"pay_1"}}`), []byte(next.Payload))
}

func TestWebhookProcessorTransportErrorRecordsZero(t *testing.T) {
	merchants := newFakeMerchantStore(&models.Merchant{
		ID:            "mrch_1",
		WebhookURL:    "http://127.0.0.1:1", // nothing listens here
		WebhookSecret: "whsec_test",
	})
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	err := p.Process(context.Background(), webhookJob(deliveryPayload()))
	require.NoError(t, err)

	require.Len(t, logs.attempts, 1)
	assert.Equal(t, models.WebhookLogStatusFailed, logs.attempts[0].Status)
	assert.Equal(t, 0, logs.attempts[0].ResponseCode)
	require.Len(t, broker.jobs, 1)
}

func TestWebhookProcessorExhaustsAfterFinalAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	merchants := newFakeMerchantStore(&models.Merchant{
		ID:            "mrch_1",
		WebhookURL:    server.URL,
		WebhookSecret: "whsec_test",
	})
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	payload := deliveryPayload()
	payload.Attempt = models.MaxWebhookAttempts
	err := p.Process(context.Background(), webhookJob(payload))
	require.NoError(t, err)

	require.Len(t, logs.attempts, 1)
	assert.Equal(t, models.WebhookLogStatusFailed, logs.attempts[0].Status)
	assert.Empty(t, broker.jobs, "attempt budget exhausted, no retry")
}

func TestWebhookProcessorNoURLConfigured(t *testing.T) {
	merchants := newFakeMerchantStore(&models.Merchant{ID: "mrch_1"})
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	err := p.Process(context.Background(), webhookJob(deliveryPayload()))
	require.NoError(t, err)

	// Not opted in: no log row, no delivery, no retry.
	assert.Empty(t, logs.attempts)
	assert.Empty(t, broker.jobs)
}

func TestWebhookProcessorMerchantLookupErrorRetriesAtBroker(t *testing.T) {
	merchants := newFakeMerchantStore()
	merchants.failure = errors.New("connection refused")
	logs := &fakeLogStore{}
	broker := &fakeBroker{}
	p := NewWebhookProcessor(merchants, logs, broker, ProductionRetrySchedule, nil)

	err := p.Process(context.Background(), webhookJob(deliveryPayload()))
	assert.Error(t, err)
	assert.Empty(t, logs.attempts)
}
