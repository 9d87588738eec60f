// Package paymentapi собирает HTTP API платежей: маршруты, зависимости и сервер.
package paymentapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация OpenAPI описания для /docs/*.
	_ "github.com/magabrotheeeer/eltawla-payments/internal/docs"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/health"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/payment/confirm"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/payment/process"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/payment/receipt"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/paymentmethod/add"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/paymentmethod/list"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/paymentmethod/remove"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/paymentmethod/setdefault"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
)

// PaymentMethodService операции над сохраненными картами.
type PaymentMethodService interface {
	list.Service
	add.Service
	remove.Service
	setdefault.Service
}

// PaymentService операции списания.
type PaymentService interface {
	process.Service
	confirm.Service
}

// HistoryService чтение истории и чеков.
type HistoryService interface {
	history.Service
	receipt.Service
}

// Dependencies все, что нужно маршрутам.
type Dependencies struct {
	Methods     PaymentMethodService
	Payments    PaymentService
	History     HistoryService
	Tokens      middlewarectx.TokenParser
	RateLimiter *middlewarectx.RateLimiter
	Requests    middlewarectx.RequestObserver
	Gatherer    prometheus.Gatherer
	Health      map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Dependencies) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)
	if deps.Requests != nil {
		r.Use(middlewarectx.MetricsMiddleware(deps.Requests))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware(logger))
		}

		r.Method(http.MethodGet, "/payment-methods", list.New(logger, deps.Methods))
		r.Method(http.MethodPost, "/payment-methods", add.New(logger, deps.Methods))
		r.Method(http.MethodDelete, "/payment-methods/{id}", remove.New(logger, deps.Methods))
		r.Method(http.MethodPut, "/payment-methods/{id}/default", setdefault.New(logger, deps.Methods))

		r.Method(http.MethodPost, "/payments", process.New(logger, deps.Payments))
		r.Method(http.MethodPost, "/payments/intents/{id}/confirm", confirm.New(logger, deps.Payments))
		r.Method(http.MethodGet, "/payments", history.New(logger, deps.History))
		r.Method(http.MethodGet, "/payments/{id}/receipt", receipt.New(logger, deps.History))
	})

	r.Method(http.MethodGet, "/health", health.New(logger, deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
