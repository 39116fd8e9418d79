package bolt

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
	"github.com/fastygo/taskboard/repository"
)

const defaultBucket = "kv"

type keyValueRepository struct {
	db     *bolt.DB
	bucket []byte
}

// Open returns a BoltDB-backed KeyValueStore stored at path.
func Open(path, bucket string) (repository.KeyValueStore, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	db, err := boltInfra.Open(path, bucket)
	if err != nil {
		return nil, err
	}
	return &keyValueRepository{db: db, bucket: []byte(bucket)}, nil
}

func (r *keyValueRepository) Get(_ context.Context, key string) (string, error) {
	if r.db == nil {
		return "", bolt.ErrDatabaseNotOpen
	}
	var (
		value string
		found bool
	)
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(r.bucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		// raw is only valid for the lifetime of the transaction.
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

func (r *keyValueRepository) Set(_ context.Context, key, value string) error {
	if r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).Put([]byte(key), []byte(value))
	})
}

func (r *keyValueRepository) Ping(context.Context) error {
	if r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(r.bucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

func (r *keyValueRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
