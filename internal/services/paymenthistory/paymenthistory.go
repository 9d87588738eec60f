// Package paymenthistory читает историю платежей и строит чеки.
package paymenthistory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
	"github.com/magabrotheeeer/eltawla-payments/internal/receipt"
	"github.com/magabrotheeeer/eltawla-payments/internal/storage"
)

// Repository хранилище платежей.
type Repository interface {
	ListPayments(ctx context.Context, userID string) ([]*models.Payment, error)
	GetPayment(ctx context.Context, userID, id string) (*models.Payment, error)
}

// Service история платежей пользователя.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает сервис истории.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// FetchHistory возвращает платежи пользователя от новых к старым.
func (s *Service) FetchHistory(ctx context.Context, userID string) ([]*models.Payment, error) {
	const op = "paymenthistory.FetchHistory"

	payments, err := s.repo.ListPayments(ctx, userID)
	if err != nil {
		s.log.Error("failed to fetch payment history", slog.String("op", op), sl.UserID(userID), sl.Err(err))
		return nil, payerr.NewPersistenceError(op, err)
	}
	return payments, nil
}

// Receipt строит чек по платежу пользователя.
func (s *Service) Receipt(ctx context.Context, userID, paymentID string) (*models.Receipt, error) {
	const op = "paymenthistory.Receipt"

	p, err := s.repo.GetPayment(ctx, userID, paymentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, payerr.ErrPaymentNotFound
	}
	if err != nil {
		s.log.Error("failed to load payment", slog.String("op", op), sl.UserID(userID),
			slog.String("payment_id", paymentID), sl.Err(err))
		return nil, payerr.NewPersistenceError(op, err)
	}

	r := receipt.GenerateReceipt(p)
	return &r, nil
}
