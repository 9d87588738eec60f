// Package receipt возвращает чек по платежу пользователя.
package receipt

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/response"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// Service определяет интерфейс построения чека.
type Service interface {
	Receipt(ctx context.Context, userID, paymentID string) (*models.Receipt, error)
}

// Handler обрабатывает запросы чека.
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
// @Summary Чек по платежу
// @Tags Payments
// @Produce json
// @Param id path string true "ID платежа"
// @Success 200 {object} response.Response{data=models.Receipt}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payments/{id}/receipt [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.receipt"
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

	paymentID := chi.URLParam(r, "id")
	rcpt, err := h.service.Receipt(r.Context(), userID, paymentID)
	if err != nil {
		log.Error("failed to build receipt", slog.String("payment_id", paymentID), sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(rcpt))
}
