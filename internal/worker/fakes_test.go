package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/queue"
)

// enqueuedJob records one broker call for assertions.
type enqueuedJob struct {
	Queue   string
	Payload any
	Delay   time.Duration
}

// fakeBroker is an in-memory queue.Broker that records every enqueue.
type fakeBroker struct {
	jobs    []enqueuedJob
	failure error
}

func (b *fakeBroker) Enqueue(_ context.Context, q string, payload any) error {
	if b.failure != nil {
		return b.failure
	}
	b.jobs = append(b.jobs, enqueuedJob{Queue: q, Payload: payload})
	return nil
}

func (b *fakeBroker) EnqueueDelayed(_ context.Context, q string, payload any, delay time.Duration) error {
	if b.failure != nil {
		return b.failure
	}
	b.jobs = append(b.jobs, enqueuedJob{Queue: q, Payload: payload, Delay: delay})
	return nil
}

func (b *fakeBroker) Counts(context.Context, string) (queue.Counts, error) {
	return queue.Counts{}, nil
}

// webhookJobAt unwraps the recorded payload at index i.
func (b *fakeBroker) webhookJobAt(i int) (queue.WebhookJobPayload, bool) {
	if i >= len(b.jobs) {
		return queue.WebhookJobPayload{}, false
	}
	p, ok := b.jobs[i].Payload.(queue.WebhookJobPayload)
	return p, ok
}

type fakePaymentStore struct {
	payments     map[string]*models.Payment
	transitioned map[string]string
	terminal     bool
}

func newFakePaymentStore(ps ...*models.Payment) *fakePaymentStore {
	s := &fakePaymentStore{
		payments:     make(map[string]*models.Payment),
		transitioned: make(map[string]string),
	}
	for _, p := range ps {
		s.payments[p.ID] = p
	}
	return s
}

func (s *fakePaymentStore) GetByID(_ context.Context, id string) (*models.Payment, error) {
	return s.payments[id], nil
}

func (s *fakePaymentStore) TransitionFromPending(_ context.Context, id, status, errorCode, errorDescription string) (bool, error) {
	if s.terminal {
		return false, nil
	}
	p, ok := s.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.ErrorCode = errorCode
	p.ErrorDescription = errorDescription
	s.transitioned[id] = status
	return true, nil
}

type fakeRefundStore struct {
	refunds   map[string]*models.Refund
	processed map[string]bool
}

func newFakeRefundStore(rs ...*models.Refund) *fakeRefundStore {
	s := &fakeRefundStore{
		refunds:   make(map[string]*models.Refund),
		processed: make(map[string]bool),
	}
	for _, r := range rs {
		s.refunds[r.ID] = r
	}
	return s
}

func (s *fakeRefundStore) GetByID(_ context.Context, id string) (*models.Refund, error) {
	return s.refunds[id], nil
}

func (s *fakeRefundStore) MarkProcessed(_ context.Context, id string) (bool, error) {
	r, ok := s.refunds[id]
	if !ok || r.Status != models.RefundStatusPending {
		return false, nil
	}
	r.Status = models.RefundStatusProcessed
	s.processed[id] = true
	return true, nil
}

type fakeMerchantStore struct {
	merchants map[string]*models.Merchant
	failure   error
}

func newFakeMerchantStore(ms ...*models.Merchant) *fakeMerchantStore {
	s := &fakeMerchantStore{merchants: make(map[string]*models.Merchant)}
	for _, m := range ms {
		s.merchants[m.ID] = m
	}
	return s
}

func (s *fakeMerchantStore) GetByID(_ context.Context, id string) (*models.Merchant, error) {
	if s.failure != nil {
		return nil, s.failure
	}
	return s.merchants[id], nil
}

// loggedAttempt is one appended webhook log row plus its final status.
type loggedAttempt struct {
	ID           string
	MerchantID   string
	Event        string
	Payload      json.RawMessage
	Attempt      int
	Status       string
	ResponseCode int
}

type fakeLogStore struct {
	attempts []*loggedAttempt
}

func (s *fakeLogStore) AppendAttempt(_ context.Context, merchantID, event string, payload json.RawMessage, attempt int) (string, error) {
	row := &loggedAttempt{
		ID:         fmt.Sprintf("whl_%d", len(s.attempts)+1),
		MerchantID: merchantID,
		Event:      event,
		Payload:    payload,
		Attempt:    attempt,
		Status:     models.WebhookLogStatusPending,
	}
	s.attempts = append(s.attempts, row)
	return row.ID, nil
}

func (s *fakeLogStore) MarkResult(_ context.Context, id, status string, responseCode int) error {
	for _, row := range s.attempts {
		if row.ID == id {
			row.Status = status
			row.ResponseCode = responseCode
			return nil
		}
	}
	return errors.New("log row not found")
}

// paymentJob wraps a payment id in the broker envelope.
func paymentJob(paymentID string) *queue.Job {
	body, _ := json.Marshal(queue.PaymentJobPayload{PaymentID: paymentID})
	return &queue.Job{ID: "job_1", Queue: queue.QueuePayment, Payload: body}
}

func refundJob(refundID string) *queue.Job {
	body, _ := json.Marshal(queue.RefundJobPayload{RefundID: refundID})
	return &queue.Job{ID: "job_1", Queue: queue.QueueRefund, Payload: body}
}

func webhookJob(p queue.WebhookJobPayload) *queue.Job {
	body, _ := json.Marshal(p)
	return &queue.Job{ID: "job_1", Queue: queue.QueueWebhook, Payload: body}
}
