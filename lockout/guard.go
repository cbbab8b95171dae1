// Package lockout throttles repeated authentication failures. The guard
// is keyed by an arbitrary identifier; callers typically use a composite
// of client origin and account so distributed guessing trips it too.
package lockout

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts is the failure count that trips a lockout.
	DefaultMaxAttempts = 5
	// DefaultLockDuration is how long a tripped identifier stays locked.
	DefaultLockDuration = 15 * time.Minute
)

// Record is the per-identifier lockout state. A LockedUntil in the past
// is equivalent to no record at all; stores evict such records lazily on
// read (their TTL bounds them regardless).
type Record struct {
	Attempts    int
	LockedUntil time.Time
}

// Locked reports whether the record is locked at the given instant.
func (r Record) Locked(now time.Time) bool {
	return !r.LockedUntil.IsZero() && r.LockedUntil.After(now)
}

// Store keeps lockout records. Updates must be atomic per identifier.
type Store interface {
	// Fail records one failure and returns the resulting record. When the
	// attempt count reaches threshold the record is locked for lockFor.
	Fail(ctx context.Context, identifier string, threshold int, lockFor time.Duration) (Record, error)
	// Status returns the current record, or a zero Record when none
	// exists or the lock has expired.
	Status(ctx context.Context, identifier string) (Record, error)
	// Clear removes the record entirely.
	Clear(ctx context.Context, identifier string) error
}

// Guard enforces the lockout policy over a Store. It is consulted before
// any credential check so a locked identifier short-circuits without
// re-attempting verification.
type Guard struct {
	store       Store
	maxAttempts int
	lockFor     time.Duration
}

// New returns a guard over the given store. Zero values fall back to the
// defaults.
func New(store Store, maxAttempts int, lockFor time.Duration) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockFor <= 0 {
		lockFor = DefaultLockDuration
	}
	return &Guard{store: store, maxAttempts: maxAttempts, lockFor: lockFor}
}

// RecordFailure counts one failed attempt and reports whether the
// identifier is now locked. Failures while locked keep counting; they
// never reset the counter.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) (bool, error) {
	rec, err := g.store.Fail(ctx, identifier, g.maxAttempts, g.lockFor)
	if err != nil {
		return false, err
	}
	return rec.Locked(time.Now()), nil
}

// IsLocked reports whether the identifier is currently locked.
func (g *Guard) IsLocked(ctx context.Context, identifier string) (bool, error) {
	rec, err := g.store.Status(ctx, identifier)
	if err != nil {
		return false, err
	}
	return rec.Locked(time.Now()), nil
}

// Reset clears the identifier's record, typically on successful
// authentication.
func (g *Guard) Reset(ctx context.Context, identifier string) error {
	return g.store.Clear(ctx, identifier)
}

// RemainingLockout returns how long the identifier stays locked, or zero
// when it is not locked.
func (g *Guard) RemainingLockout(ctx context.Context, identifier string) (time.Duration, error) {
	rec, err := g.store.Status(ctx, identifier)
	if err != nil {
		return 0, err
	}
	remaining := time.Until(rec.LockedUntil)
	if rec.LockedUntil.IsZero() || remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
