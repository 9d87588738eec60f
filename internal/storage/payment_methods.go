package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

const paymentMethodColumns = `id, user_id, provider, provider_method_id, card_last4, card_brand,
	exp_month, exp_year, is_default, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentMethod(row rowScanner) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := row.Scan(&pm.ID, &pm.UserID, &pm.Provider, &pm.ProviderMethodID, &pm.CardLast4,
		&pm.CardBrand, &pm.ExpMonth, &pm.ExpYear, &pm.IsDefault, &pm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// ListPaymentMethods возвращает методы пользователя: сначала метод по умолчанию,
// затем более новые.
func (s *Storage) ListPaymentMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error) {
	const op = "storage.ListPaymentMethods"

	query := `SELECT ` + paymentMethodColumns + `
			  FROM user_payment_methods
			  WHERE user_id = $1
			  ORDER BY is_default DESC, created_at DESC, id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PaymentMethod, 0)
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPaymentMethod возвращает метод пользователя по ID.
func (s *Storage) GetPaymentMethod(ctx context.Context, userID, id string) (*models.PaymentMethod, error) {
	const op = "storage.GetPaymentMethod"
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `SELECT ` + paymentMethodColumns + `
			  FROM user_payment_methods
			  WHERE id = $1 AND user_id = $2`
	pm, err := scanPaymentMethod(s.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pm, nil
}

// GetPaymentMethodByProviderID возвращает метод пользователя по ID в шлюзе.
func (s *Storage) GetPaymentMethodByProviderID(ctx context.Context, userID, providerMethodID string) (*models.PaymentMethod, error) {
	const op = "storage.GetPaymentMethodByProviderID"

	query := `SELECT ` + paymentMethodColumns + `
			  FROM user_payment_methods
			  WHERE provider_method_id = $1 AND user_id = $2`
	pm, err := scanPaymentMethod(s.DB.QueryRowContext(ctx, query, providerMethodID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pm, nil
}

// CreatePaymentMethod сохраняет метод и возвращает его с ID и датой создания.
func (s *Storage) CreatePaymentMethod(ctx context.Context, pm models.PaymentMethod) (*models.PaymentMethod, error) {
	const op = "storage.CreatePaymentMethod"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_payment_methods (user_id, provider, provider_method_id, card_last4,
			      card_brand, exp_month, exp_year, is_default)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, query,
		pm.UserID, pm.Provider, pm.ProviderMethodID, pm.CardLast4,
		pm.CardBrand, pm.ExpMonth, pm.ExpYear, pm.IsDefault).Scan(&pm.ID, &pm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &pm, nil
}

// DeletePaymentMethod удаляет метод пользователя.
func (s *Storage) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	const op = "storage.DeletePaymentMethod"
	if !validID(id) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM user_payment_methods WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetDefaultPaymentMethod одной командой снимает флаг со всех методов
// пользователя и ставит его на выбранный. Если метод не найден, ничего не меняется.
func (s *Storage) SetDefaultPaymentMethod(ctx context.Context, userID, id string) error {
	const op = "storage.SetDefaultPaymentMethod"
	if !validID(id) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `UPDATE user_payment_methods
			  SET is_default = (id = $2)
			  WHERE user_id = $1
			    AND EXISTS (SELECT 1 FROM user_payment_methods WHERE id = $2 AND user_id = $1)`
	res, err := s.DB.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
