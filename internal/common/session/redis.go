package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another submit is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps pages in Redis so several console instances can share them.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (s *RedisStore) key(id string) string     { return s.prefix + id }
func (s *RedisStore) lockKey(id string) string { return s.prefix + id + ":lock" }

func (s *RedisStore) Get(ctx context.Context, id string, v interface{}) error {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	return json.Unmarshal(data, v)
}

func (s *RedisStore) Put(ctx context.Context, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id), s.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Acquire takes the page lock with SETNX. The lock expires after lockTTL so a
// crashed instance cannot leave a page loading forever.
func (s *RedisStore) Acquire(ctx context.Context, id string) (Release, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, s.client, []string{s.lockKey(id)}, token).Err()
	}, nil
}
