package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
)

type stubHealth struct{ online bool }

func (s stubHealth) IsOnline() bool { return s.online }

type failingKV struct {
	repository.KeyValueStore
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("connection refused")
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

// hookKV runs onSet before every write reaches the wrapped store.
type hookKV struct {
	repository.KeyValueStore
	onSet func(key, value string)
}

func (h *hookKV) Set(ctx context.Context, key, value string) error {
	if h.onSet != nil {
		h.onSet(key, value)
	}
	return h.KeyValueStore.Set(ctx, key, value)
}

func setupProcessor(t *testing.T, kv repository.KeyValueStore, health ConnectionHealth, maxRetries int) (*BufferProcessor, *buffer.Store) {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "buffer")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	bp := NewBufferProcessor(store, health, kv, zaptest.NewLogger(t), ProcessorConfig{
		Interval:   time.Hour,
		MaxRetries: maxRetries,
	})
	return bp, store
}

func TestBufferProcessor_DrainReplaysSnapshots(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	bp, _ := setupProcessor(t, kv, stubHealth{online: true}, 3)
	bridge := NewBufferBridge(bp, "theme")

	require.NoError(t, bridge.BufferSnapshot(ctx, "tasks", `[{"id":"1"}]`))
	require.NoError(t, bridge.BufferSnapshot(ctx, "theme", "dark"))
	assert.Equal(t, 2, bp.Size())

	require.NoError(t, bp.Drain(ctx))

	assert.Zero(t, bp.Size())
	value, err := kv.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, value)
	value, err = kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}

func TestBufferProcessor_SkipsWhileOffline(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	bp, _ := setupProcessor(t, kv, stubHealth{online: false}, 3)
	require.NoError(t, NewBufferBridge(bp).BufferSnapshot(ctx, "tasks", "[]"))

	require.NoError(t, bp.Drain(ctx))

	assert.Equal(t, 1, bp.Size())
}

func TestBufferProcessor_DropsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KeyValueStore: memory.NewKeyValueRepository(), fail: true}
	bp, store := setupProcessor(t, kv, nil, 2)
	require.NoError(t, NewBufferBridge(bp).BufferSnapshot(ctx, "tasks", "[]"))

	require.NoError(t, bp.Drain(ctx))
	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)

	require.NoError(t, bp.Drain(ctx))
	assert.Zero(t, bp.Size())
}

func TestBufferBridge_Priorities(t *testing.T) {
	ctx := context.Background()
	bp, store := setupProcessor(t, memory.NewKeyValueRepository(), nil, 3)
	bridge := NewBufferBridge(bp, "theme")

	require.NoError(t, bridge.BufferSnapshot(ctx, "theme", "dark"))
	require.NoError(t, bridge.BufferSnapshot(ctx, "tasks", "[]"))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "tasks", items[0].Key)
	assert.Equal(t, priorityData, items[0].Priority)
	assert.Equal(t, prioritySettings, items[1].Priority)
}

func TestBufferBridge_SetDiscardsSupersededSnapshot(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewKeyValueRepository()
	kv := &failingKV{KeyValueStore: primary}
	bp, _ := setupProcessor(t, kv, nil, 3)
	bridge := NewBufferBridge(bp, "theme")

	require.NoError(t, bridge.BufferSnapshot(ctx, "tasks", "old"))
	require.NoError(t, bridge.BufferSnapshot(ctx, "theme", "dark"))

	kv.fail = true
	require.Error(t, bridge.Set(ctx, "tasks", "lost"))
	assert.Equal(t, 2, bp.Size())

	kv.fail = false
	require.NoError(t, bridge.Set(ctx, "tasks", "new"))
	assert.Equal(t, 1, bp.Size())

	value, err := bridge.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "new", value)
	require.NoError(t, bridge.Ping(ctx))
	require.NoError(t, bridge.Close())
}

func TestBufferProcessor_ReplayNeverOverwritesNewerWrite(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewKeyValueRepository()
	kv := &hookKV{KeyValueStore: primary}
	bp, _ := setupProcessor(t, kv, stubHealth{online: true}, 3)
	bridge := NewBufferBridge(bp, "theme")

	require.NoError(t, bridge.BufferSnapshot(ctx, "tasks", "OLD"))
	require.NoError(t, bridge.BufferSnapshot(ctx, "theme", "dark"))

	// While the stale tasks snapshot is being replayed, newer values for both
	// keys are written directly.
	var wg sync.WaitGroup
	var once sync.Once
	kv.onSet = func(_, value string) {
		if value != "OLD" {
			return
		}
		once.Do(func() {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, bridge.Set(ctx, "tasks", "NEW"))
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, bridge.Set(ctx, "theme", "light"))
			}()
			time.Sleep(20 * time.Millisecond)
		})
	}

	require.NoError(t, bp.Drain(ctx))
	wg.Wait()

	value, err := primary.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "NEW", value)
	value, err = primary.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)
	assert.Zero(t, bp.Size())
}

func TestBufferProcessor_StartStop(t *testing.T) {
	bp, _ := setupProcessor(t, memory.NewKeyValueRepository(), nil, 3)

	bp.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bp.Stop(ctx)
}

func TestBufferProcessor_PruneHonoursRetention(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	bp := NewBufferProcessor(store, stubHealth{online: false}, memory.NewKeyValueRepository(), zaptest.NewLogger(t), ProcessorConfig{
		Interval:  time.Hour,
		Retention: 24 * time.Hour,
	})

	require.NoError(t, store.Enqueue(buffer.Item{Key: "tasks", Value: "[]", Timestamp: time.Now().Add(-72 * time.Hour)}))
	require.NoError(t, store.Enqueue(buffer.Item{Key: "theme", Value: "dark"}))

	bp.Prune()

	assert.Equal(t, 1, bp.Size())
}
