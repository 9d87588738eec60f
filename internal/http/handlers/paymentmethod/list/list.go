// Package list возвращает сохраненные способы оплаты пользователя.
package list

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

// Service определяет интерфейс чтения способов оплаты.
type Service interface {
	ListMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error)
}

// Handler обрабатывает запросы списка способов оплаты.
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
// @Summary Список способов оплаты
// @Description Возвращает карты пользователя, карта по умолчанию первой
// @Tags PaymentMethods
// @Produce json
// @Success 200 {object} response.Response{data=[]models.PaymentMethod}
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payment-methods [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.paymentmethod.list"
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

	methods, err := h.service.ListMethods(r.Context(), userID)
	if err != nil {
		log.Error("failed to list payment methods", sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Debug("payment methods listed", slog.Int("count", len(methods)))
	render.JSON(w, r, response.StatusOKWithData(methods))
}
