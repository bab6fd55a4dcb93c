package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpay/gateway/internal/models"
)

type fakeReplayStore struct {
	responses map[string]json.RawMessage
	failure   error
	lookups   int
}

func (s *fakeReplayStore) Lookup(_ context.Context, key, merchantID string) (json.RawMessage, error) {
	s.lookups++
	if s.failure != nil {
		return nil, s.failure
	}
	return s.responses[merchantID+":"+key], nil
}

func idempotencyRouter(store *fakeReplayStore, handlerRan *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextMerchant, &models.Merchant{ID: "mrch_1"})
	})
	r.POST("/payments", Idempotency(store, nil), func(c *gin.Context) {
		*handlerRan = true
		c.JSON(http.StatusCreated, gin.H{"id": "pay_new", "key": IdempotencyKeyFrom(c)})
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := &fakeReplayStore{responses: map[string]json.RawMessage{
		"mrch_1:key-1": json.RawMessage(`{"id":"pay_original"}`),
	}}
	handlerRan := false
	r := idempotencyRouter(store, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"pay_original"}`, w.Body.String())
	assert.False(t, handlerRan, "replay must not re-run the handler")
}

func TestIdempotencyMissRunsHandlerWithKey(t *testing.T) {
	store := &fakeReplayStore{responses: map[string]json.RawMessage{}}
	handlerRan := false
	r := idempotencyRouter(store, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, handlerRan)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "key-2", body["key"])
}

func TestIdempotencyNoHeaderBypassesGuard(t *testing.T) {
	store := &fakeReplayStore{}
	handlerRan := false
	r := idempotencyRouter(store, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.True(t, handlerRan)
	assert.Zero(t, store.lookups, "no header means no lookup")
}

func TestIdempotencyFailsOpenOnStoreError(t *testing.T) {
	store := &fakeReplayStore{failure: errors.New("db down")}
	handlerRan := false
	r := idempotencyRouter(store, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-3")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, handlerRan)
}
