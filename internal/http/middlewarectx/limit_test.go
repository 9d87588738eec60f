package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/eltawla-payments/internal/config"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
)

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(config.RateLimit{RPS: 0.001, Burst: 2})
	handler := limiter.Middleware(newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID, addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.RemoteAddr = addr
		if userID != "" {
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("u1", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("u1", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("u1", "10.0.0.1:1000"))

	assert.Equal(t, http.StatusOK, send("u2", "10.0.0.1:1000"), "other user has own bucket")
	assert.Equal(t, http.StatusOK, send("", "10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, send("", "10.0.0.2:2000"))
	assert.Equal(t, http.StatusTooManyRequests, send("", "10.0.0.2:3000"), "anonymous clients keyed by host")
}

func TestRateLimiter_IndependentInstances(t *testing.T) {
	first := middlewarectx.NewRateLimiter(config.RateLimit{RPS: 0.001, Burst: 1})
	second := middlewarectx.NewRateLimiter(config.RateLimit{RPS: 0.001, Burst: 1})

	assert.True(t, first.Allow("k"))
	assert.False(t, first.Allow("k"))
	assert.True(t, second.Allow("k"))
}

func TestRateLimiter_ZeroBurst(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(config.RateLimit{RPS: 1})
	assert.True(t, limiter.Allow("k"))
}
