package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	guard := New(NewMemoryStore(), 5, time.Minute)
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		locked, err := guard.RecordFailure(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d must not lock", i)

		locked, err = guard.IsLocked(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, locked)
	}

	locked, err := guard.RecordFailure(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked, "attempt 5 must lock")

	locked, err = guard.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestFailureWhileLockedKeepsCounting(t *testing.T) {
	store := NewMemoryStore()
	guard := New(store, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		guard.RecordFailure(ctx, "bob")
	}

	locked, err := guard.RecordFailure(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, locked)

	rec, err := store.Status(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Attempts, "counter must not reset while locked")
}

func TestIdentifiersAreIndependent(t *testing.T) {
	guard := New(NewMemoryStore(), 2, time.Minute)
	ctx := context.Background()

	guard.RecordFailure(ctx, "carol")
	guard.RecordFailure(ctx, "carol")

	locked, err := guard.IsLocked(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = guard.IsLocked(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLockoutExpiry(t *testing.T) {
	guard := New(NewMemoryStore(), 2, 50*time.Millisecond)
	ctx := context.Background()

	guard.RecordFailure(ctx, "eve")
	locked, err := guard.RecordFailure(ctx, "eve")
	require.NoError(t, err)
	require.True(t, locked)

	time.Sleep(80 * time.Millisecond)

	locked, err = guard.IsLocked(ctx, "eve")
	require.NoError(t, err)
	assert.False(t, locked, "lock must lapse once lockedUntil passes")

	// a fresh failure starts over at 1
	locked, err = guard.RecordFailure(ctx, "eve")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestReset(t *testing.T) {
	guard := New(NewMemoryStore(), 2, time.Minute)
	ctx := context.Background()

	guard.RecordFailure(ctx, "frank")
	guard.RecordFailure(ctx, "frank")

	require.NoError(t, guard.Reset(ctx, "frank"))

	locked, err := guard.IsLocked(ctx, "frank")
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = guard.RecordFailure(ctx, "frank")
	require.NoError(t, err)
	assert.False(t, locked, "reset must start a fresh counter")
}

func TestRemainingLockout(t *testing.T) {
	guard := New(NewMemoryStore(), 1, time.Minute)
	ctx := context.Background()

	remaining, err := guard.RemainingLockout(ctx, "grace")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	guard.RecordFailure(ctx, "grace")

	remaining, err = guard.RemainingLockout(ctx, "grace")
	require.NoError(t, err)
	assert.True(t, remaining > 50*time.Second)
	assert.True(t, remaining <= time.Minute)
}

func TestGuardDefaults(t *testing.T) {
	guard := New(NewMemoryStore(), 0, 0)
	assert.Equal(t, DefaultMaxAttempts, guard.maxAttempts)
	assert.Equal(t, DefaultLockDuration, guard.lockFor)
}
