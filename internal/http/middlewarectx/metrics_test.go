package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method: method, route: route, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(middlewarectx.MetricsMiddleware(obs))
	r.Get("/payments/{id}/receipt", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/payments/abc/receipt", "/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, obs.seen, 2)
	assert.Equal(t, observation{method: "GET", route: "/payments/{id}/receipt", status: http.StatusNotFound}, obs.seen[0])
	assert.Equal(t, observation{method: "GET", route: "/health", status: http.StatusOK}, obs.seen[1])
}
