package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client), mr
}

func TestRedisThreshold(t *testing.T) {
	store, _ := testRedisStore(t)
	guard := New(store, 5, time.Minute)
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		locked, err := guard.RecordFailure(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d must not lock", i)
	}

	locked, err := guard.RecordFailure(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = guard.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestRedisCounterSurvivesLock(t *testing.T) {
	store, _ := testRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.Fail(ctx, "bob", 3, time.Minute)
		require.NoError(t, err)
	}

	rec, err := store.Status(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Attempts)
	assert.True(t, rec.Locked(time.Now()))
}

func TestRedisExpiry(t *testing.T) {
	store, mr := testRedisStore(t)
	guard := New(store, 2, time.Minute)
	ctx := context.Background()

	guard.RecordFailure(ctx, "eve")
	locked, err := guard.RecordFailure(ctx, "eve")
	require.NoError(t, err)
	require.True(t, locked)

	mr.FastForward(2 * time.Minute)

	locked, err = guard.IsLocked(ctx, "eve")
	require.NoError(t, err)
	assert.False(t, locked)

	// fresh counter after expiry
	rec, err := store.Fail(ctx, "eve", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRedisClear(t *testing.T) {
	store, _ := testRedisStore(t)
	ctx := context.Background()

	store.Fail(ctx, "frank", 1, time.Minute)
	require.NoError(t, store.Clear(ctx, "frank"))

	rec, err := store.Status(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, Record{}, rec)
}
