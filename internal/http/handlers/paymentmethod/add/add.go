// Package add обрабатывает добавление карты пользователя.
package add

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/response"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// Request реквизиты карты. Номер, срок и CVC проверяются сервисом,
// чтобы ответ содержал код ошибки карты.
type Request struct {
	Number     string `json:"number" example:"4242 4242 4242 4242"`
	ExpMonth   string `json:"exp_month" example:"12"`
	ExpYear    string `json:"exp_year" example:"30"`
	CVC        string `json:"cvc" example:"123"`
	HolderName string `json:"holder_name" validate:"max=100" example:"Amira Ben Salah"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
}

// Service определяет интерфейс добавления способа оплаты.
type Service interface {
	AddMethod(ctx context.Context, userID string, details models.CardDetails) (*models.PaymentMethod, error)
}

// Handler обрабатывает запросы добавления карты.
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
// @Summary Добавить карту
// @Description Регистрирует карту в платежном шлюзе и сохраняет последние четыре цифры
// @Tags PaymentMethods
// @Accept json
// @Produce json
// @Param request body Request true "Реквизиты карты"
// @Success 201 {object} response.Response{data=models.PaymentMethod}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payment-methods [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.paymentmethod.add"
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
	if req.Email == "" {
		req.Email = email
	}

	method, err := h.service.AddMethod(r.Context(), userID, models.CardDetails{
		Number:     req.Number,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		CVC:        req.CVC,
		HolderName: req.HolderName,
		Email:      req.Email,
	})
	if err != nil {
		log.Error("failed to add payment method", sl.Err(err))
		status, body := response.PaymentError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("payment method added", slog.String("method_id", method.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(method))
}
