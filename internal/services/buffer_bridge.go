package services

import (
	"context"

	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

const (
	priorityData     = 2
	prioritySettings = 4
)

// BufferBridge adapts BufferProcessor to the use-case SnapshotBuffer port.
// It is also the key-value store the use cases write through: Set goes to the
// primary store and discards the buffered snapshot it supersedes.
type BufferBridge struct {
	processor    *BufferProcessor
	settingsKeys map[string]struct{}
}

// NewBufferBridge builds a bridge. Snapshots for settingsKeys replay after
// every other key.
func NewBufferBridge(processor *BufferProcessor, settingsKeys ...string) *BufferBridge {
	keys := make(map[string]struct{}, len(settingsKeys))
	for _, key := range settingsKeys {
		keys[key] = struct{}{}
	}
	return &BufferBridge{processor: processor, settingsKeys: keys}
}

func (b *BufferBridge) BufferSnapshot(_ context.Context, key, value string) error {
	priority := priorityData
	if _, ok := b.settingsKeys[key]; ok {
		priority = prioritySettings
	}
	return b.processor.BufferSnapshot(buffer.Item{
		Key:      key,
		Value:    value,
		Priority: priority,
	})
}

func (b *BufferBridge) Get(ctx context.Context, key string) (string, error) {
	return b.processor.kv.Get(ctx, key)
}

func (b *BufferBridge) Set(ctx context.Context, key, value string) error {
	return b.processor.Write(ctx, key, value)
}

func (b *BufferBridge) Ping(ctx context.Context) error {
	return b.processor.kv.Ping(ctx)
}

// Close is a no-op; the primary store is closed by its owner.
func (b *BufferBridge) Close() error {
	return nil
}

var (
	_ usecase.SnapshotBuffer   = (*BufferBridge)(nil)
	_ repository.KeyValueStore = (*BufferBridge)(nil)
)
