package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type keyValueRepository struct {
	client *redislib.Client
	prefix string
}

// NewKeyValueRepository creates a Redis-backed KeyValueStore. Keys are
// namespaced with prefix so several boards can share one database.
func NewKeyValueRepository(client *redislib.Client, prefix string) repository.KeyValueStore {
	if prefix == "" {
		prefix = "taskboard:"
	}
	return &keyValueRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *keyValueRepository) Get(ctx context.Context, key string) (string, error) {
	result, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", domain.ErrKeyNotFound
		}
		return "", err
	}
	return result, nil
}

func (r *keyValueRepository) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *keyValueRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *keyValueRepository) Close() error {
	return r.client.Close()
}

func (r *keyValueRepository) key(key string) string {
	return r.prefix + key
}
