package lockout

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	attemptsKeyPrefix = "lockout:attempts:"
	lockKeyPrefix     = "lockout:locked:"
)

// RedisStore shares lockout state across service instances. Attempt
// counters use INCR so concurrent failures never lose updates, and both
// keys carry a native TTL so expired records cost nothing.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore returns a store over the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL connects to the given redis URL and verifies the
// connection before returning the store.
func NewRedisStoreFromURL(ctx context.Context, rawurl string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawurl)
	if err != nil {
		return nil, errors.Wrap(err, "parsing lockout redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connecting to lockout redis")
	}
	return NewRedisStore(client), nil
}

// Fail implements Store.
func (s *RedisStore) Fail(ctx context.Context, identifier string, threshold int, lockFor time.Duration) (Record, error) {
	attemptsKey := attemptsKeyPrefix + identifier

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, attemptsKey)
	pipe.PExpire(ctx, attemptsKey, lockFor)
	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, errors.Wrap(err, "recording lockout failure")
	}

	rec := Record{Attempts: int(incr.Val())}
	if rec.Attempts >= threshold {
		rec.LockedUntil = time.Now().Add(lockFor)
		err := s.client.Set(ctx, lockKeyPrefix+identifier,
			strconv.FormatInt(rec.LockedUntil.UnixNano()/int64(time.Millisecond), 10),
			lockFor).Err()
		if err != nil {
			return Record{}, errors.Wrap(err, "setting lockout")
		}
	}

	return rec, nil
}

// Status implements Store.
func (s *RedisStore) Status(ctx context.Context, identifier string) (Record, error) {
	rec := Record{}

	attempts, err := s.client.Get(ctx, attemptsKeyPrefix+identifier).Result()
	if err != nil && err != redis.Nil {
		return Record{}, errors.Wrap(err, "reading lockout attempts")
	}
	if err == nil {
		rec.Attempts, _ = strconv.Atoi(attempts)
	}

	locked, err := s.client.Get(ctx, lockKeyPrefix+identifier).Result()
	if err == redis.Nil {
		return rec, nil
	}
	if err != nil {
		return Record{}, errors.Wrap(err, "reading lockout state")
	}

	ms, err := strconv.ParseInt(locked, 10, 64)
	if err != nil {
		return rec, nil
	}
	until := time.Unix(0, ms*int64(time.Millisecond))
	if !until.After(time.Now()) {
		// the key's TTL should have removed it already
		s.client.Del(ctx, lockKeyPrefix+identifier)
		return rec, nil
	}
	rec.LockedUntil = until

	return rec, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	err := s.client.Del(ctx, attemptsKeyPrefix+identifier, lockKeyPrefix+identifier).Err()
	return errors.Wrap(err, "clearing lockout record")
}
