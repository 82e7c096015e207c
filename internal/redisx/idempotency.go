package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("idempotency record not found")

const inFlight = "in-flight"

// Idempotency stores the response of a placement under a caller-chosen key so
// a retried request replays it instead of placing a second order.
type Idempotency struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewIdempotency(rdb redis.Cmdable, ttl time.Duration) *Idempotency {
	return &Idempotency{rdb: rdb, ttl: ttl}
}

func idemKey(userID, key string) string {
	return fmt.Sprintf(KeyIdemOrderPlace, userID, key)
}

// Acquire marks the key in flight. False means another request owns it or
// already finished; use Recall to tell which.
func (s *Idempotency) Acquire(ctx context.Context, userID, key string) (bool, error) {
	return s.rdb.SetNX(ctx, idemKey(userID, key), inFlight, TTLInFlight).Result()
}

// Recall returns the stored response. A key that is still in flight reports
// done=false.
func (s *Idempotency) Recall(ctx context.Context, userID, key string) (body []byte, done bool, err error) {
	v, err := s.rdb.Get(ctx, idemKey(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if string(v) == inFlight {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *Idempotency) Remember(ctx context.Context, userID, key string, body []byte) error {
	return s.rdb.Set(ctx, idemKey(userID, key), body, s.ttl).Err()
}

// Release drops an in-flight key after a failed placement so the client can retry.
func (s *Idempotency) Release(ctx context.Context, userID, key string) error {
	return s.rdb.Del(ctx, idemKey(userID, key)).Err()
}
