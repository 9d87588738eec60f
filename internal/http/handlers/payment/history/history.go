// Package history возвращает историю платежей пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/response"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// Service определяет интерфейс чтения истории.
type Service interface {
	FetchHistory(ctx context.Context, userID string) ([]*models.Payment, error)
}

// Handler обрабатывает запросы истории платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История платежей
// @Description Платежи пользователя от новых к старым
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payments [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, _, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	payments, err := h.service.FetchHistory(r.Context(), userID)
	if err != nil {
		log.Error("failed to fetch payment history", sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(payments))
}
