package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eltawla-payments/internal/config"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := models.ChargeResult{
		Payment: &models.Payment{ID: "p1", Amount: 45000, Currency: "TND", Status: "succeeded"},
		PaymentIntent: &models.PaymentIntent{
			ID: "pi_1", Amount: 45000, Currency: "TND", Status: "succeeded",
		},
	}
	require.NoError(t, cache.Set(ctx, "idempotency:u1:k1", expected, time.Minute))

	var actual models.ChargeResult
	found, err := cache.Get(ctx, "idempotency:u1:k1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.ChargeResult
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "k"))

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetCorruptedValue(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("broken", "{not json"))

	var out models.ChargeResult
	found, err := cache.Get(context.Background(), "broken", &out)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestInitServerUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = InitServer(context.Background(), config.RedisConnection{AddressRedis: addr, DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
