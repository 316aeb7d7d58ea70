package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindowLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := &fakeWindowLimiter{}
	policy := RateLimitPolicy{Name: "public", Limit: 2, Window: time.Minute}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)
	rec := call("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2").Code)
}

func TestRateLimitKeysAdminsById(t *testing.T) {
	store := &fakeWindowLimiter{}
	policy := RateLimitPolicy{Name: "admin", Limit: 5, Window: time.Minute}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	adminID := uuid.New()
	req = req.WithContext(WithPrincipal(req.Context(), Principal{AdminID: adminID, Role: "admin"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(1), store.counts["admin:admin:"+adminID.String()])
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := &fakeWindowLimiter{err: errors.New("redis down")}
	policy := RateLimitPolicy{Name: "public", Limit: 1, Window: time.Minute}
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitDisabledPolicyIsPassthrough(t *testing.T) {
	store := &fakeWindowLimiter{}
	handler := RateLimit(RateLimitPolicy{Name: "off"}, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, store.counts)
}
