package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

const paymentColumns = `id, user_id, amount, currency, payment_method_id, provider_intent_id,
	status, description, metadata, card_brand, card_last4, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p        models.Payment
		metadata []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.PaymentMethodID, &p.ProviderIntentID,
		&p.Status, &p.Description, &metadata, &p.CardBrand, &p.CardLast4, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &p, nil
}

func encodeMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	return json.Marshal(m)
}

// SavePayment сохраняет информацию о платеже
func (s *Storage) SavePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.SavePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO payments (user_id, amount, currency, payment_method_id, provider_intent_id,
			      status, description, metadata, card_brand, card_last4)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id, created_at`
	err = s.DB.QueryRowContext(ctx, query,
		p.UserID, p.Amount, p.Currency, p.PaymentMethodID, p.ProviderIntentID,
		p.Status, p.Description, metadata, p.CardBrand, p.CardLast4).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// SavePaymentIfAbsent сохраняет платеж, если для intent еще нет записи.
// Возвращает сохраненную запись и признак того, что она создана этим вызовом.
func (s *Storage) SavePaymentIfAbsent(ctx context.Context, p models.Payment) (*models.Payment, bool, error) {
	const op = "storage.SavePaymentIfAbsent"

	metadata, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO payments (user_id, amount, currency, payment_method_id, provider_intent_id,
			      status, description, metadata, card_brand, card_last4)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (provider_intent_id) DO NOTHING
			  RETURNING id, created_at`
	err = s.DB.QueryRowContext(ctx, query,
		p.UserID, p.Amount, p.Currency, p.PaymentMethodID, p.ProviderIntentID,
		p.Status, p.Description, metadata, p.CardBrand, p.CardLast4).Scan(&p.ID, &p.CreatedAt)
	if err == nil {
		return &p, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE provider_intent_id = $1`, p.ProviderIntentID))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return existing, false, nil
}

// ListPayments возвращает платежи пользователя от новых к старым.
func (s *Storage) ListPayments(ctx context.Context, userID string) ([]*models.Payment, error) {
	const op = "storage.ListPayments"

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPayment возвращает платеж пользователя по ID.
func (s *Storage) GetPayment(ctx context.Context, userID, id string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
