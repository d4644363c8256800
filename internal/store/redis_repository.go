package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the document.
const DefaultRedisKey = "familie-app-v2:data:v1"

// RedisRepository stores the document as a JSON string under one key.
// It works against any Redis-compatible server, including Upstash over
// rediss:// URLs.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository creates a Redis-backed repository.
func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRepository{client: client, key: key}
}

// ConnectRedis parses a redis:// or rediss:// URL and verifies the server
// is reachable.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Ping checks that the server is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get reads the document. A missing key yields the empty document.
func (r *RedisRepository) Get(ctx context.Context) (*Document, error) {
	return r.get(ctx, r.client)
}

// Set writes the document without expiry.
func (r *RedisRepository) Set(ctx context.Context, doc *Document) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Update performs an optimistic WATCH/MULTI transaction, retrying when the
// key changed between read and write.
func (r *RedisRepository) Update(ctx context.Context, fn MutateFunc) (*Document, error) {
	var result *Document

	txf := func(tx *redis.Tx) error {
		doc, err := r.get(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		data, err := encode(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = doc
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (r *RedisRepository) get(ctx context.Context, c redis.Cmdable) (*Document, error) {
	data, err := c.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

var (
	_ Repository = (*RedisRepository)(nil)
	_ Updater    = (*RedisRepository)(nil)
)
