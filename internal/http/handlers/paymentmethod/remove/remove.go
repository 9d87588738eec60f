// Package remove обрабатывает удаление способа оплаты.
package remove

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
)

// Service определяет интерфейс удаления способа оплаты.
type Service interface {
	RemoveMethod(ctx context.Context, userID, methodID string) error
}

// Handler обрабатывает запросы удаления карты.
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
// @Summary Удалить карту
// @Description Отвязывает карту в платежном шлюзе и удаляет запись
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "ID способа оплаты"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payment-methods/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.paymentmethod.remove"
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

	methodID := chi.URLParam(r, "id")
	if err := h.service.RemoveMethod(r.Context(), userID, methodID); err != nil {
		log.Error("failed to remove payment method", slog.String("method_id", methodID), sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("payment method removed", slog.String("method_id", methodID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"removed_id": methodID,
	}))
}
