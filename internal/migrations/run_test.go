package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("payments"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return db
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	db := getTestDB(t)

	require.NoError(t, Run(db, getMigrationsPath(t)))

	require.True(t, tableExists(t, db, "user_payment_methods"))
	require.True(t, tableExists(t, db, "payments"))

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'payments'
			AND indexname = 'idx_payments_user_id_created_at'
		)`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "history index should exist")

	version, dirty, err := Version(db, getMigrationsPath(t))
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)
}

func TestMigrationIdempotency(t *testing.T) {
	db := getTestDB(t)
	path := getMigrationsPath(t)

	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path), "second run must be a no-op")
}

func TestPaymentAmountIsImmutable(t *testing.T) {
	db := getTestDB(t)
	require.NoError(t, Run(db, getMigrationsPath(t)))

	var id string
	err := db.QueryRow(`INSERT INTO payments (user_id, amount, currency, payment_method_id, provider_intent_id, status)
		VALUES ('u1', 45000, 'TND', 'pm_1', 'pi_1', 'succeeded') RETURNING id`).Scan(&id)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE payments SET amount = 1 WHERE id = $1`, id)
	require.Error(t, err)

	_, err = db.Exec(`UPDATE payments SET status = 'refunded' WHERE id = $1`, id)
	require.NoError(t, err)
}

func TestVersionBeforeMigrations(t *testing.T) {
	db := getTestDB(t)

	version, dirty, err := Version(db, getMigrationsPath(t))
	require.NoError(t, err)
	require.False(t, dirty)
	require.Zero(t, version)
}
