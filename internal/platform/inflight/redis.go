package inflight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "transitplan:inflight:"

// release only deletes the key when it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Guard shared by every API replica
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds a guard on client; ttl bounds how long a crashed holder blocks a key
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if client == nil {
		panic("inflight.Redis requires a non nil client")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

// Acquire sets the key with NX and a ttl
func (r *Redis) Acquire(ctx context.Context, key string) (Lease, error) {
	l := Lease{Key: key, Token: uuid.NewString()}
	ok, err := r.client.SetNX(ctx, keyPrefix+key, l.Token, r.ttl).Result()
	if err != nil {
		return Lease{}, fmt.Errorf("inflight: acquire %s: %w", key, err)
	}
	if !ok {
		return Lease{}, ErrHeld
	}
	return l, nil
}

// Release deletes the key when the token matches
func (r *Redis) Release(ctx context.Context, l Lease) error {
	if err := releaseScript.Run(ctx, r.client, []string{keyPrefix + l.Key}, l.Token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("inflight: release %s: %w", l.Key, err)
	}
	return nil
}
