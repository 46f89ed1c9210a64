package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/redis"
)

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()
	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()
	_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://not-redis"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

// TestStorage needs a live server: REDIS_TEST_URL=redis://localhost:6379/15
func TestStorage(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()

	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, redis.Healthcheck(client)(ctx))

	store := redis.NewStorage(client, "test:"+uuid.NewString()+":")

	val, err := store.Get(ctx, "catalog")
	require.NoError(t, err)
	assert.Nil(t, val, "missing keys read as nil")

	require.NoError(t, store.Set(ctx, "catalog", []byte(`[{"slug":"reports"}]`), time.Minute))
	val, err = store.Get(ctx, "catalog")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"reports"}]`, string(val))

	require.NoError(t, store.Delete(ctx, "catalog"))
	val, err = store.Get(ctx, "catalog")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set(ctx, "", []byte("x"), 0), "empty keys are ignored")
}
