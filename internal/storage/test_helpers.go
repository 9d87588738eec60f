package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/eltawla-payments/internal/migrations"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreatePaymentMethod сохраняет карту пользователя с последними цифрами last4.
func (f *TestDataFactory) CreatePaymentMethod(t *testing.T, userID, providerMethodID, last4 string, isDefault bool) *models.PaymentMethod {
	t.Helper()
	pm, err := f.storage.CreatePaymentMethod(context.Background(), models.PaymentMethod{
		UserID:           userID,
		Provider:         "stripe",
		ProviderMethodID: providerMethodID,
		CardLast4:        last4,
		CardBrand:        "visa",
		ExpMonth:         12,
		ExpYear:          2030,
		IsDefault:        isDefault,
	})
	require.NoError(t, err)
	return pm
}

// CreatePayment сохраняет платеж с заданным временем создания.
func (f *TestDataFactory) CreatePayment(t *testing.T, userID, intentID string, amount int64, createdAt time.Time) *models.Payment {
	t.Helper()
	p, err := f.storage.SavePayment(context.Background(), models.Payment{
		UserID:           userID,
		Amount:           amount,
		Currency:         "TND",
		PaymentMethodID:  "pm_" + intentID,
		ProviderIntentID: intentID,
		Status:           "succeeded",
		Description:      "Dinner reservation",
		Metadata:         map[string]string{models.MetadataUserID: userID},
	})
	require.NoError(t, err)

	_, err = f.storage.DB.Exec(`UPDATE payments SET created_at = $1 WHERE id = $2`, createdAt, p.ID)
	require.NoError(t, err)
	p.CreatedAt = createdAt
	return p
}

// CountDefaults возвращает число методов по умолчанию у пользователя.
func (f *TestDataFactory) CountDefaults(t *testing.T, userID string) int {
	t.Helper()
	var count int
	err := f.storage.DB.QueryRow(
		`SELECT COUNT(*) FROM user_payment_methods WHERE user_id = $1 AND is_default`, userID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}
