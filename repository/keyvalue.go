package repository

import "context"

// KeyValueStore is the durable string-valued storage the task store persists to.
// Get returns domain.ErrKeyNotFound when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}
