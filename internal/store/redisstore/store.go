package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client used as a read-through cache for weather
// provider payloads.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// GetWeather returns the cached payload for a key, or redis.Nil when absent.
func (s *Store) GetWeather(ctx context.Context, key string) ([]byte, error) {
	return s.rdb.Get(ctx, key).Bytes()
}

func (s *Store) SetWeather(ctx context.Context, key string, payload []byte) error {
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
