package memory

import (
	"context"
	"sync"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type keyValueRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKeyValueRepository returns an in-process store. Contents are lost on exit.
func NewKeyValueRepository() repository.KeyValueStore {
	return &keyValueRepository{values: make(map[string]string)}
}

func (r *keyValueRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

func (r *keyValueRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *keyValueRepository) Ping(context.Context) error {
	return nil
}

func (r *keyValueRepository) Close() error {
	return nil
}
