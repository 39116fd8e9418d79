package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

const fixedToday domain.Date = "2026-03-10"

// flakyKV wraps a KeyValueStore and fails writes or reads on demand.
type flakyKV struct {
	repository.KeyValueStore
	failSet bool
	failGet bool
	sets    int
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.failSet {
		return errors.New("backend offline")
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if f.failGet {
		return "", errors.New("backend offline")
	}
	return f.KeyValueStore.Get(ctx, key)
}

type recordingBuffer struct {
	mu    sync.Mutex
	items map[string]string
}

func (b *recordingBuffer) BufferSnapshot(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.items == nil {
		b.items = make(map[string]string)
	}
	b.items[key] = value
	return nil
}

func setupStore(t *testing.T, kv repository.KeyValueStore, opts Options) *Store {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	store := New(kv, nil, zaptest.NewLogger(t), opts)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(store.Close)
	return store
}

func emptyStore(t *testing.T) (*Store, repository.KeyValueStore) {
	t.Helper()
	kv := memory.NewKeyValueRepository()
	return setupStore(t, kv, Options{SkipSeed: true}), kv
}

func savedTasks(t *testing.T, kv repository.KeyValueStore) []domain.Task {
	t.Helper()
	raw, err := kv.Get(context.Background(), DefaultTasksKey)
	require.NoError(t, err)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal([]byte(raw), &tasks))
	return tasks
}

func TestInit_FirstRunSeedsAndPersists(t *testing.T) {
	kv := memory.NewKeyValueRepository()
	store := setupStore(t, kv, Options{})

	tasks := store.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, fixedToday, tasks[0].DueDate)
	assert.Equal(t, fixedToday.AddDays(1), tasks[1].DueDate)
	assert.Equal(t, fixedToday.AddDays(2), tasks[2].DueDate)
	assert.True(t, tasks[2].Completed)
	assert.Equal(t, domain.Counts{Total: 3, Pending: 2, Completed: 1}, store.Counts())

	assert.Equal(t, tasks, savedTasks(t, kv))
	assert.Equal(t, domain.ThemeLight, store.Theme())
}

func TestInit_EmptyStoredValueSeeds(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	require.NoError(t, kv.Set(ctx, DefaultTasksKey, ""))

	store := setupStore(t, kv, Options{})

	require.Len(t, store.Tasks(), 3)
	assert.Len(t, savedTasks(t, kv), 3)
}

func TestInit_EmptyStoredValueWithoutSeedStaysEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	require.NoError(t, kv.Set(ctx, DefaultTasksKey, ""))

	store := setupStore(t, kv, Options{SkipSeed: true})

	assert.Empty(t, store.Tasks())
}

func TestInit_MalformedDataRecoversEmptyWithoutRewriting(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	require.NoError(t, kv.Set(ctx, DefaultTasksKey, `[{"id":"a","title":`))

	store := setupStore(t, kv, Options{})

	assert.Empty(t, store.Tasks())
	assert.Empty(t, store.Visible())
	raw, err := kv.Get(ctx, DefaultTasksKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a","title":`, raw)

	_, err = store.CreateTask(ctx, domain.Draft{Title: "fresh start"})
	require.NoError(t, err)
	assert.Len(t, savedTasks(t, kv), 1)
}

func TestInit_LoadsSavedTasksAndTheme(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	saved := []domain.Task{
		{ID: "1", Title: "one", Category: domain.CategoryWork, Priority: domain.PriorityHigh, DueDate: fixedToday},
		{ID: "1", Title: "duplicate", Category: domain.CategoryWork, Priority: domain.PriorityLow, DueDate: fixedToday},
		{ID: "2", Title: "two", Category: domain.CategoryHealth, Priority: domain.PriorityLow, DueDate: fixedToday, Completed: true},
	}
	payload, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, DefaultTasksKey, string(payload)))
	require.NoError(t, kv.Set(ctx, DefaultThemeKey, "dark"))

	store := setupStore(t, kv, Options{})

	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "one", tasks[0].Title)
	assert.Equal(t, "2", tasks[1].ID)
	assert.Equal(t, domain.ThemeDark, store.Theme())
}

func TestInit_UnknownThemeFallsBackToLight(t *testing.T) {
	kv := memory.NewKeyValueRepository()
	require.NoError(t, kv.Set(context.Background(), DefaultThemeKey, "sepia"))

	store := setupStore(t, kv, Options{SkipSeed: true})

	assert.Equal(t, domain.ThemeLight, store.Theme())
}

func TestInit_BackendFailureIsReturned(t *testing.T) {
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueRepository(), failGet: true}
	store := New(kv, nil, zaptest.NewLogger(t), Options{})

	err := store.Init(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestLoadingFlagClearsAfterDelay(t *testing.T) {
	store := setupStore(t, memory.NewKeyValueRepository(), Options{SkipSeed: true, LoadingDelay: 20 * time.Millisecond})

	assert.True(t, store.Loading())
	assert.Eventually(t, func() bool { return !store.Loading() }, time.Second, 5*time.Millisecond)
}

func TestCreateTask_DefaultsAndUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)
	assert.False(t, store.Loading())

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		created, err := store.CreateTask(ctx, domain.Draft{Title: "task"})
		require.NoError(t, err)
		_, dup := seen[created.ID]
		require.False(t, dup, "duplicate id %s", created.ID)
		seen[created.ID] = struct{}{}
	}

	first := store.Tasks()[0]
	assert.Equal(t, fixedToday, first.DueDate)
	assert.Equal(t, domain.CategoryOther, first.Category)
	assert.Equal(t, domain.PriorityMedium, first.Priority)
	assert.False(t, first.Completed)
	assert.Len(t, savedTasks(t, kv), 50)
}

func TestCreateTask_KeepsInsertionOrderAndExplicitFields(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)

	a, _ := store.CreateTask(ctx, domain.Draft{Title: "a", Category: domain.CategoryStudy, Priority: domain.PriorityHigh, DueDate: "2026-04-01"})
	b, _ := store.CreateTask(ctx, domain.Draft{Title: "b"})

	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, []string{a.ID, b.ID}, []string{tasks[0].ID, tasks[1].ID})
	assert.Equal(t, domain.CategoryStudy, tasks[0].Category)
	assert.Equal(t, domain.Date("2026-04-01"), tasks[0].DueDate)
	assert.Equal(t, tasks, store.Visible())
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)
	created, _ := store.CreateTask(ctx, domain.Draft{Title: "draft", Category: domain.CategoryWork, Priority: domain.PriorityLow, DueDate: "2026-03-20"})
	_, _ = store.ToggleComplete(ctx, created.ID)

	updated, err := store.UpdateTask(ctx, created.ID, domain.Draft{Title: "final", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.Equal(t, domain.CategoryWork, updated.Category)
	assert.Equal(t, domain.Date("2026-03-20"), updated.DueDate)
	assert.True(t, updated.Completed)
	assert.Equal(t, "final", savedTasks(t, kv)[0].Title)
}

func TestMissingIDIsANoOp(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueRepository()}
	store := setupStore(t, kv, Options{SkipSeed: true})
	_, _ = store.CreateTask(ctx, domain.Draft{Title: "keep"})
	before := store.Tasks()
	writes := kv.sets

	_, err := store.UpdateTask(ctx, "missing", domain.Draft{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = store.ToggleComplete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, store.DeleteTask(ctx, "missing"), domain.ErrTaskNotFound)
	_, err = store.Get("missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.Equal(t, before, store.Tasks())
	assert.Equal(t, writes, kv.sets)
}

func TestToggleCompleteTwiceRestores(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	created, _ := store.CreateTask(ctx, domain.Draft{Title: "flip"})

	once, err := store.ToggleComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)
	assert.Equal(t, domain.Counts{Total: 1, Completed: 1}, store.Counts())

	twice, err := store.ToggleComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Completed, twice.Completed)
}

func TestDeleteTask_IdempotentAndPersisted(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)
	a, _ := store.CreateTask(ctx, domain.Draft{Title: "a"})
	b, _ := store.CreateTask(ctx, domain.Draft{Title: "b"})

	require.NoError(t, store.DeleteTask(ctx, a.ID))
	assert.ErrorIs(t, store.DeleteTask(ctx, a.ID), domain.ErrTaskNotFound)

	for _, task := range store.Tasks() {
		assert.NotEqual(t, a.ID, task.ID)
	}
	for _, task := range store.Visible() {
		assert.NotEqual(t, a.ID, task.ID)
	}
	saved := savedTasks(t, kv)
	require.Len(t, saved, 1)
	assert.Equal(t, b.ID, saved[0].ID)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueRepository()
	first := setupStore(t, kv, Options{})
	_, _ = first.CreateTask(ctx, domain.Draft{Title: "Read a book", Category: domain.CategoryEducation, Priority: domain.PriorityLow, DueDate: "2026-05-05"})
	seeded := first.Tasks()[0]
	_, _ = first.ToggleComplete(ctx, seeded.ID)

	second := setupStore(t, kv, Options{})

	assert.ElementsMatch(t, first.Tasks(), second.Tasks())
}

func TestFiltersAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	a, _ := store.CreateTask(ctx, domain.Draft{Title: "A", Category: domain.CategoryWork, Priority: domain.PriorityHigh})
	b, _ := store.CreateTask(ctx, domain.Draft{Title: "B", Category: domain.CategoryPersonal, Priority: domain.PriorityLow})
	c, _ := store.CreateTask(ctx, domain.Draft{Title: "C", Category: domain.CategoryWork, Priority: domain.PriorityLow})
	_, _ = store.ToggleComplete(ctx, b.ID)

	_, err := store.SetFilters(domain.FilterCriteria{Category: string(domain.CategoryWork)})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, taskIDs(store.Visible()))

	criteria, err := store.SetFilters(domain.FilterCriteria{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CategoryWork), criteria.Category)
	assert.Equal(t, []string{a.ID, c.ID}, taskIDs(store.Visible()))

	_, err = store.SetFilters(domain.DefaultFilters())
	require.NoError(t, err)
	store.SetSearchTerm("PERSONAL")
	assert.Equal(t, []string{b.ID}, taskIDs(store.Visible()))
	assert.Equal(t, "PERSONAL", store.SearchTerm())

	store.SetSearchTerm("")
	assert.Len(t, store.Visible(), 3)

	_, err = store.SetFilters(domain.FilterCriteria{Priority: "urgent"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Equal(t, domain.DefaultFilters(), store.Filters())
}

func TestVisibleFollowsMutations(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	_, err := store.SetFilters(domain.FilterCriteria{Status: domain.StatusPending})
	require.NoError(t, err)

	created, _ := store.CreateTask(ctx, domain.Draft{Title: "new"})
	assert.Len(t, store.Visible(), 1)

	_, _ = store.ToggleComplete(ctx, created.ID)
	assert.Empty(t, store.Visible())
}

func TestVisibleRecomputesWhenDayChanges(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	store := setupStore(t, memory.NewKeyValueRepository(), Options{
		SkipSeed: true,
		Now:      func() time.Time { return now },
	})
	_, _ = store.CreateTask(ctx, domain.Draft{Title: "due today"})
	_, err := store.SetFilters(domain.FilterCriteria{Date: domain.DateToday})
	require.NoError(t, err)
	require.Len(t, store.Visible(), 1)

	now = now.Add(24 * time.Hour)

	assert.Empty(t, store.Visible())
}

func TestThemePersists(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)

	require.NoError(t, store.SetTheme(ctx, domain.ThemeDark))
	assert.Equal(t, domain.ThemeDark, store.Theme())
	raw, err := kv.Get(ctx, DefaultThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)

	assert.ErrorIs(t, store.SetTheme(ctx, "neon"), domain.ErrInvalidTheme)
	assert.Equal(t, domain.ThemeDark, store.Theme())
}

func TestEditorFlow(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)

	ed := store.BeginAdd()
	assert.Equal(t, EditorAdd, ed.Mode)
	created, err := store.SaveTask(ctx, domain.Draft{Title: "from dialog", Category: domain.CategoryShopping})
	require.NoError(t, err)
	assert.Equal(t, EditorClosed, store.Snapshot().Editor.Mode)

	ed, err = store.BeginEdit(created.ID)
	require.NoError(t, err)
	assert.Equal(t, EditorEdit, ed.Mode)
	require.NotNil(t, ed.Task)
	assert.Equal(t, "from dialog", ed.Task.Title)

	updated, err := store.SaveTask(ctx, domain.Draft{Title: "edited"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, domain.CategoryShopping, updated.Category)
	assert.Len(t, store.Tasks(), 1)

	_, err = store.BeginEdit("missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	store.BeginAdd()
	store.CancelEdit()
	assert.Equal(t, EditorClosed, store.Snapshot().Editor.Mode)
}

func TestSaveTask_NewTaskNeedsTitle(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)

	store.BeginAdd()
	_, err := store.SaveTask(ctx, domain.Draft{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Equal(t, EditorAdd, store.Snapshot().Editor.Mode)

	store.CancelEdit()
	_, err = store.SaveTask(ctx, domain.Draft{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	assert.Empty(t, store.Tasks())
	_, err = kv.Get(ctx, DefaultTasksKey)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestDeleteConfirmationFlow(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	a, _ := store.CreateTask(ctx, domain.Draft{Title: "a"})
	b, _ := store.CreateTask(ctx, domain.Draft{Title: "b"})

	_, err := store.ConfirmDelete(ctx)
	assert.ErrorIs(t, err, domain.ErrNothingPending)

	pending, err := store.RequestDelete(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, pending.ID)
	snap := store.Snapshot()
	require.NotNil(t, snap.Deletion.Task)
	assert.Equal(t, a.ID, snap.Deletion.Task.ID)

	store.CancelDelete()
	assert.Nil(t, store.Snapshot().Deletion.Task)
	assert.Len(t, store.Tasks(), 2)

	_, err = store.RequestDelete(b.ID)
	require.NoError(t, err)
	removed, err := store.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)
	assert.Equal(t, []string{a.ID}, taskIDs(store.Tasks()))

	_, err = store.RequestDelete("missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeletingEditedTaskClosesEditor(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	a, _ := store.CreateTask(ctx, domain.Draft{Title: "a"})
	_, err := store.BeginEdit(a.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteTask(ctx, a.ID))

	assert.Equal(t, EditorClosed, store.Snapshot().Editor.Mode)
}

func TestFailedWritesGoToBuffer(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueRepository()}
	buffer := &recordingBuffer{}
	store := New(kv, buffer, zaptest.NewLogger(t), Options{SkipSeed: true, Now: func() time.Time { return fixedNow }})
	require.NoError(t, store.Init(ctx))
	kv.failSet = true

	created, err := store.CreateTask(ctx, domain.Draft{Title: "offline"})
	require.NoError(t, err)
	require.NoError(t, store.SetTheme(ctx, domain.ThemeDark))

	assert.Len(t, store.Tasks(), 1)
	require.Contains(t, buffer.items, DefaultTasksKey)
	var buffered []domain.Task
	require.NoError(t, json.Unmarshal([]byte(buffer.items[DefaultTasksKey]), &buffered))
	require.Len(t, buffered, 1)
	assert.Equal(t, created.ID, buffered[0].ID)
	assert.Equal(t, "dark", buffer.items[DefaultThemeKey])
}

func TestWriteAfterRecoveryPersistsFullCollection(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueRepository(), failSet: true}
	buffer := &recordingBuffer{}
	store := New(kv, buffer, zaptest.NewLogger(t), Options{SkipSeed: true, Now: func() time.Time { return fixedNow }})
	require.NoError(t, store.Init(ctx))

	_, _ = store.CreateTask(ctx, domain.Draft{Title: "queued"})
	require.Contains(t, buffer.items, DefaultTasksKey)

	kv.failSet = false
	_, _ = store.CreateTask(ctx, domain.Draft{Title: "direct"})

	assert.Len(t, savedTasks(t, kv), 2)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := emptyStore(t)
	_, _ = store.CreateTask(ctx, domain.Draft{Title: "Work presentation", Category: domain.CategoryWork})
	_, _ = store.CreateTask(ctx, domain.Draft{Title: "Gym", Category: domain.CategoryHealth})
	store.SetSearchTerm("work")

	snap := store.Snapshot()

	assert.Len(t, snap.Tasks, 2)
	assert.Len(t, snap.Visible, 1)
	assert.Equal(t, domain.Counts{Total: 2, Pending: 2}, snap.Counts)
	assert.Equal(t, "work", snap.Search)
	assert.Equal(t, domain.ThemeLight, snap.Theme)
	assert.False(t, snap.Loading)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store, kv := emptyStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := store.CreateTask(ctx, domain.Draft{Title: "parallel"})
			if err == nil {
				_, _ = store.ToggleComplete(ctx, created.ID)
			}
			_ = store.Visible()
		}()
	}
	wg.Wait()

	assert.Len(t, store.Tasks(), 20)
	assert.Equal(t, 20, store.Counts().Completed)
	assert.Len(t, savedTasks(t, kv), 20)
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
