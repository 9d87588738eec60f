// Package confirm подтверждает ранее созданный платеж, например после 3-D Secure.
package confirm

import (
	"context"
	"encoding/json"
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

// Request способ оплаты для подтверждения.
type Request struct {
	PaymentMethodID string `json:"payment_method_id" example:"pm_123"`
}

// Service определяет интерфейс подтверждения платежа.
type Service interface {
	ConfirmPaymentIntent(ctx context.Context, userID, intentID, paymentMethodID string) (*models.ChargeResult, error)
}

// Handler обрабатывает запросы подтверждения платежа.
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
// @Summary Подтвердить платеж
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "ID intent в шлюзе"
// @Param request body Request true "Способ оплаты"
// @Success 200 {object} response.Response{data=models.ChargeResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payments/intents/{id}/confirm [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	intentID := chi.URLParam(r, "id")
	result, err := h.service.ConfirmPaymentIntent(r.Context(), userID, intentID, req.PaymentMethodID)
	if err != nil {
		log.Error("failed to confirm payment intent", slog.String("intent_id", intentID), sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("payment intent confirmed", slog.String("intent_id", intentID), slog.String("status", result.Payment.Status))
	render.JSON(w, r, response.StatusOKWithData(result))
}
