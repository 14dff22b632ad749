package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisBackend connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisBackend stores the document in a hash {version, value} under one key.
// Save runs inside WATCH/MULTI so a concurrent writer aborts the transaction.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// OpenRedis connects to redis and verifies the connection with PING
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return NewRedisBackend(client, opts.Key), nil
}

// NewRedisBackend wraps an existing client
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultKey
	}
	return &RedisBackend{client: client, key: key}
}

// Load implements Backend
func (b *RedisBackend) Load(ctx context.Context) ([]byte, int64, error) {
	fields, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis: load settings: %w", err)
	}
	if len(fields) == 0 {
		return nil, 0, ErrNotFound
	}
	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("redis: parse version: %w", err)
	}
	return []byte(fields["value"]), version, nil
}

// Save implements Backend
func (b *RedisBackend) Save(ctx context.Context, data []byte, expected int64) (int64, error) {
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, b.key, "version").Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, b.key, "version", expected+1, "value", string(data))
			return nil
		})
		return err
	}, b.key)
	if err != nil {
		return 0, redisSaveError(err)
	}
	return expected + 1, nil
}

// Close implements Backend
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// redisSaveError maps an aborted transaction onto ErrVersionConflict
func redisSaveError(err error) error {
	switch {
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	default:
		return fmt.Errorf("redis: save settings: %w", err)
	}
}

var _ Backend = (*RedisBackend)(nil)
