// Package process обрабатывает оплату сохраненной картой.
package process

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/response"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// IdempotencyHeader заголовок с ключом идемпотентности запроса.
const IdempotencyHeader = "Idempotency-Key"

// Request запрос на оплату. Сумма в минимальных единицах валюты.
type Request struct {
	Amount          int64             `json:"amount" example:"45000"`
	Currency        string            `json:"currency" example:"TND"`
	PaymentMethodID string            `json:"payment_method_id" example:"pm_123"`
	Description     string            `json:"description" validate:"max=500" example:"Dinner reservation"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Service определяет интерфейс проведения оплаты.
type Service interface {
	ProcessPayment(ctx context.Context, userID string, req models.ChargeRequest) (*models.ChargeResult, error)
}

// Handler обрабатывает запросы оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оплатить
// @Description Создает и подтверждает платеж в шлюзе и сохраняет его. Повтор с тем же Idempotency-Key возвращает прежний результат
// @Tags Payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Param request body Request true "Данные платежа"
// @Success 200 {object} response.Response{data=models.ChargeResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payments [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.process"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, email, ok := middlewarectx.UserFromContext(r.Context())
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
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	// Чек уходит только на адрес из токена.
	metadata := make(map[string]string, len(req.Metadata)+1)
	maps.Copy(metadata, req.Metadata)
	delete(metadata, models.MetadataEmail)
	if email != "" {
		metadata[models.MetadataEmail] = email
	}

	result, err := h.service.ProcessPayment(r.Context(), userID, models.ChargeRequest{
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
		Metadata:        metadata,
		IdempotencyKey:  r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		log.Error("payment failed", sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("payment processed",
		slog.String("payment_id", result.Payment.ID),
		slog.String("status", result.Payment.Status))
	render.JSON(w, r, response.StatusOKWithData(result))
}
