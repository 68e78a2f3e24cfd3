package session

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// RedisStore keeps each session as one Redis hash, so every captcha key of a
// session shares a single TTL and HINCRBY gives atomic counter updates.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store writing hashes under "<prefix><sid>".
// ttl <= 0 leaves keys without expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return s.prefix + sid
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrEmptySessionID
	}
	v, err := s.client.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	if sid == "" {
		return ErrEmptySessionID
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key(sid), key, value)
		s.expire(ctx, p, sid)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, sid, key string) error {
	if sid == "" {
		return ErrEmptySessionID
	}
	return s.client.HDel(ctx, s.key(sid), key).Err()
}

func (s *RedisStore) Incr(ctx context.Context, sid, key string, delta int64) (int64, error) {
	if sid == "" {
		return 0, ErrEmptySessionID
	}
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, s.key(sid), key, delta)
		s.expire(ctx, p, sid)
		return nil
	})
	if err != nil {
		if isNotIntegerErr(err) {
			return 0, ErrNotInteger
		}
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) expire(ctx context.Context, p redis.Pipeliner, sid string) {
	if s.ttl > 0 {
		p.Expire(ctx, s.key(sid), s.ttl)
	}
}

func isNotIntegerErr(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.Contains(rerr.Error(), "not an integer")
}

var (
	_ Store       = (*RedisStore)(nil)
	_ Incrementer = (*RedisStore)(nil)
)
