package flag

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flag:"

// RedisStore persists flags in Redis so every process in a deployment sees
// a toggle immediately.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, name string) (bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("get flag %s: %w", name, err)
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse flag %s: %w", name, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, name string, value bool) error {
	if err := s.client.Set(ctx, keyPrefix+name, strconv.FormatBool(value), 0).Err(); err != nil {
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return nil
}
