package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJob(t *testing.T) {
	raw, err := marshalJob(QueuePayment, PaymentJobPayload{PaymentID: "pay_1"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, QueuePayment, job.Queue)
	assert.Equal(t, 0, job.Attempt)
	assert.False(t, job.CreatedAt.IsZero())

	var payload PaymentJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "pay_1", payload.PaymentID)
}

func TestJobPayloadFieldNames(t *testing.T) {
	// Consumers key on these exact field names; changing them breaks
	// in-flight jobs across a deploy.
	body, err := json.Marshal(WebhookJobPayload{
		MerchantID: "mrch_1",
		Event:      "payment.success",
		Payload:    json.RawMessage(`{"payment":{"id":"pay_1"}}`),
		Attempt:    2,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"merchantId": "mrch_1",
		"event": "payment.success",
		"payload": {"payment":{"id":"pay_1"}},
		"attempt": 2
	}`, string(body))

	body, err = json.Marshal(PaymentJobPayload{PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"paymentId":"pay_1"}`, string(body))

	body, err = json.Marshal(RefundJobPayload{RefundID: "rfnd_1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"refundId":"rfnd_1"}`, string(body))
}

func TestQueueKeys(t *testing.T) {
	assert.Equal(t, "queue:payment", listKey(QueuePayment))
	assert.Equal(t, "queue:payment:delayed", delayedKey(QueuePayment))
	assert.Equal(t, "queue:payment:dlq", dlqKey(QueuePayment))
	assert.Equal(t, "queue:payment:stats", statsKey(QueuePayment))
}

func TestParseStat(t *testing.T) {
	stats := map[string]string{"active": "3", "completed": "10", "failed": "junk"}
	assert.Equal(t, int64(3), parseStat(stats, "active"))
	assert.Equal(t, int64(10), parseStat(stats, "completed"))
	assert.Equal(t, int64(0), parseStat(stats, "failed"))
	assert.Equal(t, int64(0), parseStat(stats, "missing"))
}
