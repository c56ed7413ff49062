package session

import (
	"context"
	"fmt"
	"time"

	"healthcare-portal/internal/clinicalapi"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portal:session:"

// RedisStore keeps credentials in Redis so several portal instances share them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Save(ctx context.Context, viewerID string, creds clinicalapi.Credentials) error {
	value, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("session: marshal credentials: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+viewerID, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, viewerID string) (clinicalapi.Credentials, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+viewerID).Bytes()
	if err == redis.Nil {
		return clinicalapi.Credentials{}, ErrNotFound
	} else if err != nil {
		return clinicalapi.Credentials{}, fmt.Errorf("session: redis get: %w", err)
	}
	var creds clinicalapi.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return clinicalapi.Credentials{}, fmt.Errorf("session: unmarshal credentials: %w", err)
	}
	return creds, nil
}

func (s *RedisStore) Clear(ctx context.Context, viewerID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+viewerID).Err(); err != nil {
		return fmt.Errorf("session: redis delete: %w", err)
	}
	return nil
}
