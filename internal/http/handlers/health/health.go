// Package health отвечает на проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/response"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
)

// Pinger зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler проверяет базу данных и кэш.
type Handler struct {
	log     *slog.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

// New создает Handler. Nil зависимости пропускаются.
func New(log *slog.Logger, checks map[string]Pinger) *Handler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &Handler{
		log:     log,
		checks:  active,
		timeout: 2 * time.Second,
	}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Error("dependency unavailable", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{Status: response.StatusError, Error: "dependency unavailable", Data: status})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(status))
}
