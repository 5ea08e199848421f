package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig is used to connect the redis backend
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// RedisBackend keeps one hash per collection and tenant.
//
// Keys:
//
//	<prefix>:rec:<collection>:<tenant>  hash  id -> record JSON
//	<prefix>:idx:<collection>           hash  id -> tenant
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects and pings redis
func NewRedisBackend(ctx context.Context, c RedisConfig) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return NewRedisBackendWithClient(rdb, c.KeyPrefix), nil
}

// NewRedisBackendWithClient wraps an existing client
func NewRedisBackendWithClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "bizledger"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) recordsKey(collection, tenantID string) string {
	return b.prefix + ":rec:" + collection + ":" + tenantID
}

func (b *RedisBackend) indexKey(collection string) string {
	return b.prefix + ":idx:" + collection
}

// List returns every record in the tenant's hash
func (b *RedisBackend) List(ctx context.Context, collection, tenantID string) ([]Record, error) {
	values, err := b.client.HGetAll(ctx, b.recordsKey(collection, tenantID)).Result()
	if err != nil {
		return nil, err
	}

	result := make([]Record, 0, len(values))
	for id, raw := range values {
		rec, err := decodeJSONRecord(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s/%s", collection, id)
		}
		result = append(result, rec)
	}
	return result, nil
}

// Insert claims the id in the collection index, then writes the record
func (b *RedisBackend) Insert(ctx context.Context, collection string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(ErrInvalidRecord, err.Error())
	}

	claimed, err := b.client.HSetNX(ctx, b.indexKey(collection), rec.ID(), rec.TenantID()).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return ErrDuplicateID
	}

	if err := b.client.HSet(ctx, b.recordsKey(collection, rec.TenantID()), rec.ID(), raw).Err(); err != nil {
		// release the id so a resubmit can succeed
		b.client.HDel(context.WithoutCancel(ctx), b.indexKey(collection), rec.ID())
		return err
	}
	return nil
}

// Patch merges under WATCH so concurrent patches do not interleave
func (b *RedisBackend) Patch(ctx context.Context, collection, tenantID, id string, patch Record) (Record, error) {
	key := b.recordsKey(collection, tenantID)
	var merged Record

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		current, err := decodeJSONRecord(raw)
		if err != nil {
			return err
		}
		merged = merge(current, patch)
		encoded, err := json.Marshal(merged)
		if err != nil {
			return errors.Wrap(ErrInvalidRecord, err.Error())
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, encoded)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Remove deletes the record and releases its id
func (b *RedisBackend) Remove(ctx context.Context, collection, tenantID, id string) error {
	removed, err := b.client.HDel(ctx, b.recordsKey(collection, tenantID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return b.client.HDel(ctx, b.indexKey(collection), id).Err()
}

// Close closes the redis client
func (b *RedisBackend) Close(context.Context) error {
	return b.client.Close()
}

func decodeJSONRecord(raw string) (Record, error) {
	return unmarshalRecord([]byte(raw))
}
