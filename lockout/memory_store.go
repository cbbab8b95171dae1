package lockout

import (
	"context"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps lockout records in process. The cache's per-key TTL
// bounds memory growth without a sweep of our own; records disappear one
// lock duration after their last failure. Suitable for single-process
// deployments only.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore returns an in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(DefaultLockDuration, 10*time.Minute),
	}
}

// Fail implements Store.
func (s *MemoryStore) Fail(ctx context.Context, identifier string, threshold int, lockFor time.Duration) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec := s.current(identifier, now)

	rec.Attempts++
	if rec.Attempts >= threshold {
		rec.LockedUntil = now.Add(lockFor)
	}
	s.cache.Set(identifier, rec, lockFor)

	return rec, nil
}

// Status implements Store.
func (s *MemoryStore) Status(ctx context.Context, identifier string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current(identifier, time.Now()), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(identifier)
	return nil
}

// current returns the live record for the identifier, lazily evicting a
// record whose lock has already expired. Callers hold the mutex.
func (s *MemoryStore) current(identifier string, now time.Time) Record {
	obj, found := s.cache.Get(identifier)
	if !found {
		return Record{}
	}
	rec := obj.(Record)
	if !rec.LockedUntil.IsZero() && !rec.LockedUntil.After(now) {
		s.cache.Delete(identifier)
		return Record{}
	}
	return rec
}
