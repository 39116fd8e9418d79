package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type keyValueRepository struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewKeyValueRepository returns a Postgres-backed KeyValueStore over the
// kv_store table. Rows are scoped by namespace.
func NewKeyValueRepository(pool *pgxpool.Pool, namespace string) repository.KeyValueStore {
	if namespace == "" {
		namespace = "default"
	}
	return &keyValueRepository{pool: pool, namespace: namespace}
}

func (r *keyValueRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `
	SELECT value
	FROM kv_store
	WHERE namespace = $1 AND key = $2
	`
	var value string
	if err := r.pool.QueryRow(ctx, query, r.namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrKeyNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *keyValueRepository) Set(ctx context.Context, key, value string) error {
	const query = `
	INSERT INTO kv_store (namespace, key, value)
	VALUES ($1, $2, $3)
	ON CONFLICT (namespace, key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, r.namespace, key, value)
	return err
}

func (r *keyValueRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *keyValueRepository) Close() error {
	r.pool.Close()
	return nil
}
