// Package paymentmethods управляет сохраненными способами оплаты пользователя.
package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/card"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
	"github.com/magabrotheeeer/eltawla-payments/internal/storage"
)

// Repository хранилище способов оплаты.
type Repository interface {
	ListPaymentMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, userID, id string) (*models.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, pm models.PaymentMethod) (*models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, userID, id string) error
	SetDefaultPaymentMethod(ctx context.Context, userID, id string) error
}

// Gateway часть платежного шлюза, работающая с картами.
type Gateway interface {
	Name() string
	CreatePaymentMethod(ctx context.Context, card models.CardDetails, expMonth, expYear int) (*models.RegisteredCard, error)
	DetachPaymentMethod(ctx context.Context, providerMethodID string) error
}

// Recorder учитывает операции в метриках.
type Recorder interface {
	ObserveMethodOperation(operation string, err error)
}

// Service реализует операции над способами оплаты.
type Service struct {
	repo    Repository
	gateway Gateway
	metrics Recorder
	log     *slog.Logger
	now     func() time.Time
}

// New создает сервис. metrics может быть nil.
func New(repo Repository, gateway Gateway, metrics Recorder, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) observe(operation string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMethodOperation(operation, err)
	}
}

// ListMethods возвращает способы оплаты пользователя, метод по умолчанию первым.
func (s *Service) ListMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error) {
	const op = "paymentmethods.ListMethods"

	methods, err := s.repo.ListPaymentMethods(ctx, userID)
	if err != nil {
		s.log.Error("failed to list payment methods", slog.String("op", op), sl.UserID(userID), sl.Err(err))
		return nil, payerr.NewPersistenceError(op, err)
	}
	return methods, nil
}

// ValidateCard проверяет реквизиты карты без обращения к внешним сервисам.
func ValidateCard(details models.CardDetails, now time.Time) error {
	if !card.ValidNumber(details.Number) {
		return payerr.NewValidationError("number", payerr.CodeIncorrectNumber, "card number must contain exactly 16 digits")
	}
	if !card.ValidExpiry(details.ExpMonth, details.ExpYear, now) {
		return payerr.NewValidationError("expiry", payerr.CodeInvalidExpiry, "card expiry is malformed or in the past")
	}
	if !card.ValidCVC(details.CVC) {
		return payerr.NewValidationError("cvc", payerr.CodeIncorrectCVC, "cvc must contain 3 or 4 digits")
	}
	return nil
}

// AddMethod регистрирует карту в шлюзе и сохраняет метод. В базу попадают
// только последние четыре цифры номера.
func (s *Service) AddMethod(ctx context.Context, userID string, details models.CardDetails) (pm *models.PaymentMethod, err error) {
	const op = "paymentmethods.AddMethod"
	log := s.log.With(slog.String("op", op), sl.UserID(userID))
	defer func() { s.observe("add", err) }()

	if err := ValidateCard(details, s.now()); err != nil {
		log.Info("card rejected by validation", sl.Err(err))
		return nil, err
	}
	expMonth, expYear, _ := card.ParseExpiry(details.ExpMonth, details.ExpYear)
	details.Number = card.Normalize(details.Number)

	registered, err := s.gateway.CreatePaymentMethod(ctx, details, expMonth, expYear)
	if err != nil {
		log.Warn("gateway rejected payment method", sl.Err(err))
		return nil, err
	}

	method := models.PaymentMethod{
		UserID:           userID,
		Provider:         s.gateway.Name(),
		ProviderMethodID: registered.ProviderMethodID,
		CardLast4:        card.Last4(details.Number),
		CardBrand:        registered.Brand,
		ExpMonth:         expMonth,
		ExpYear:          expYear,
	}
	if registered.ExpMonth != 0 && registered.ExpYear != 0 {
		method.ExpMonth, method.ExpYear = registered.ExpMonth, registered.ExpYear
	}

	saved, err := s.repo.CreatePaymentMethod(ctx, method)
	if err != nil {
		log.Error("payment method registered at gateway but not stored",
			slog.String("provider_method_id", registered.ProviderMethodID), sl.Err(err))
		return nil, &payerr.PersistenceError{Op: op, GatewayRef: registered.ProviderMethodID, Err: err}
	}

	log.Info("payment method added", slog.String("method_id", saved.ID))
	return saved, nil
}

// RemoveMethod отвязывает метод в шлюзе и только после этого удаляет запись.
func (s *Service) RemoveMethod(ctx context.Context, userID, methodID string) (err error) {
	const op = "paymentmethods.RemoveMethod"
	log := s.log.With(slog.String("op", op), sl.UserID(userID), slog.String("method_id", methodID))
	defer func() { s.observe("remove", err) }()

	method, err := s.repo.GetPaymentMethod(ctx, userID, methodID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return payerr.ErrMethodNotFound
		}
		log.Error("failed to load payment method", sl.Err(err))
		return payerr.NewPersistenceError(op, err)
	}

	if err := s.gateway.DetachPaymentMethod(ctx, method.ProviderMethodID); err != nil {
		log.Warn("gateway refused to detach payment method", sl.Err(err))
		return err
	}

	if err := s.repo.DeletePaymentMethod(ctx, userID, methodID); err != nil {
		log.Error("payment method detached at gateway but not deleted",
			slog.String("provider_method_id", method.ProviderMethodID), sl.Err(err))
		return &payerr.PersistenceError{Op: op, GatewayRef: method.ProviderMethodID, Err: err}
	}

	log.Info("payment method removed")
	return nil
}

// SetDefault делает метод основным. Остальные методы пользователя теряют флаг
// в той же операции.
func (s *Service) SetDefault(ctx context.Context, userID, methodID string) (err error) {
	const op = "paymentmethods.SetDefault"
	defer func() { s.observe("set_default", err) }()

	if err := s.repo.SetDefaultPaymentMethod(ctx, userID, methodID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return payerr.ErrMethodNotFound
		}
		s.log.Error("failed to set default payment method",
			slog.String("op", op), sl.UserID(userID), slog.String("method_id", methodID), sl.Err(err))
		return payerr.NewPersistenceError(op, fmt.Errorf("set default %s: %w", methodID, err))
	}
	return nil
}
