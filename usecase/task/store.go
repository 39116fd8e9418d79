package task

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

const (
	DefaultTasksKey     = "tasks"
	DefaultThemeKey     = "theme"
	DefaultLoadingDelay = 800 * time.Millisecond
)

// Options tunes a Store. Empty keys fall back to the defaults above and a zero
// LoadingDelay clears the loading flag as soon as Init returns. SkipSeed
// leaves a first-run board empty instead of adding demo tasks.
type Options struct {
	TasksKey     string
	ThemeKey     string
	LoadingDelay time.Duration
	SkipSeed     bool
	Location     *time.Location
	Now          func() time.Time
}

// EditorMode tells whether the task dialog is adding or editing.
type EditorMode string

const (
	EditorClosed EditorMode = ""
	EditorAdd    EditorMode = "add"
	EditorEdit   EditorMode = "edit"
)

// Editor is the state of the add/edit dialog.
type Editor struct {
	Mode EditorMode   `json:"mode"`
	Task *domain.Task `json:"task,omitempty"`
}

// Deletion is the task awaiting delete confirmation, if any.
type Deletion struct {
	Task *domain.Task `json:"task,omitempty"`
}

// Snapshot is everything the presentation layer renders, read atomically.
type Snapshot struct {
	Tasks    []domain.Task         `json:"tasks"`
	Visible  []domain.Task         `json:"visible"`
	Loading  bool                  `json:"loading"`
	Theme    domain.Theme          `json:"theme"`
	Counts   domain.Counts         `json:"counts"`
	Filters  domain.FilterCriteria `json:"filters"`
	Search   string                `json:"search"`
	Editor   Editor                `json:"editor"`
	Deletion Deletion              `json:"deletion"`
}

// Store owns the task collection, the filter/search state and the theme.
// Every mutation rewrites the persisted collection in full and recomputes the
// visible subset before returning. All access is serialized by mu.
type Store struct {
	kv     repository.KeyValueStore
	buffer usecase.SnapshotBuffer
	logger *zap.Logger
	opts   Options

	mu         sync.RWMutex
	tasks      []domain.Task
	visible    []domain.Task
	visibleDay domain.Date
	filters    domain.FilterCriteria
	search     string
	theme      domain.Theme
	loading    bool
	loadTimer  *time.Timer

	editMode      EditorMode
	editID        string
	pendingDelete string
}

func New(kv repository.KeyValueStore, buffer usecase.SnapshotBuffer, logger *zap.Logger, opts Options) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TasksKey == "" {
		opts.TasksKey = DefaultTasksKey
	}
	if opts.ThemeKey == "" {
		opts.ThemeKey = DefaultThemeKey
	}
	if opts.LoadingDelay < 0 {
		opts.LoadingDelay = 0
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		kv:      kv,
		buffer:  buffer,
		logger:  logger,
		opts:    opts,
		tasks:   []domain.Task{},
		visible: []domain.Task{},
		filters: domain.DefaultFilters(),
		theme:   domain.ThemeLight,
		loading: true,
	}
}

// Init loads the persisted collection and theme. A malformed collection is
// discarded in favour of an empty one; only backend read failures are returned.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadTasks(ctx); err != nil {
		return err
	}
	s.loadTheme(ctx)
	s.recompute()

	if s.opts.LoadingDelay == 0 {
		s.loading = false
	} else {
		s.loading = true
		s.loadTimer = time.AfterFunc(s.opts.LoadingDelay, func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		})
	}

	s.logger.Info("task store initialized",
		zap.Int("tasks", len(s.tasks)),
		zap.String("theme", string(s.theme)))
	return nil
}

// Close stops the loading timer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadTimer != nil {
		s.loadTimer.Stop()
	}
}

func (s *Store) CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, draft), nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, draft domain.Draft) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, draft)
}

func (s *Store) ToggleComplete(ctx context.Context, id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	s.tasks[idx].Completed = !s.tasks[idx].Completed
	s.commit(ctx)
	s.logger.Debug("task toggled", zap.String("task_id", id), zap.Bool("completed", s.tasks[idx].Completed))
	return s.tasks[idx], nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, id)
}

// SetFilters merges the non-empty fields of patch into the active criteria.
func (s *Store) SetFilters(patch domain.FilterCriteria) (domain.FilterCriteria, error) {
	if err := patch.Validate(); err != nil {
		return domain.FilterCriteria{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.Merge(patch)
	s.recompute()
	return s.filters, nil
}

func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
	s.recompute()
}

func (s *Store) SetTheme(ctx context.Context, theme domain.Theme) error {
	if !theme.Valid() {
		return domain.ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	s.write(ctx, s.opts.ThemeKey, string(theme))
	return nil
}

// BeginAdd opens the dialog in add mode.
func (s *Store) BeginAdd() Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = EditorAdd
	s.editID = ""
	return s.editor()
}

// BeginEdit opens the dialog on an existing task.
func (s *Store) BeginEdit(id string) (Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return Editor{}, domain.ErrTaskNotFound
	}
	s.editMode = EditorEdit
	s.editID = id
	return s.editor(), nil
}

func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeEditor()
}

// SaveTask creates a task in add mode and updates the edited task in edit
// mode. The dialog is closed afterwards. A new task needs a title; a rejected
// draft leaves the dialog open.
func (s *Store) SaveTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editMode == EditorEdit {
		id := s.editID
		updated, err := s.update(ctx, id, draft)
		s.closeEditor()
		return updated, err
	}
	if strings.TrimSpace(draft.Title) == "" {
		return domain.Task{}, domain.WrapError(domain.ErrCodeInvalid, "title: required", domain.ErrInvalidPayload)
	}
	created := s.create(ctx, draft)
	s.closeEditor()
	return created, nil
}

// RequestDelete marks a task for deletion pending confirmation.
func (s *Store) RequestDelete(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	s.pendingDelete = id
	return s.tasks[idx], nil
}

// ConfirmDelete removes the task marked by RequestDelete.
func (s *Store) ConfirmDelete(ctx context.Context) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingDelete == "" {
		return domain.Task{}, domain.ErrNothingPending
	}
	id := s.pendingDelete
	s.pendingDelete = ""
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	removed := s.tasks[idx]
	if err := s.remove(ctx, id); err != nil {
		return domain.Task{}, err
	}
	return removed, nil
}

func (s *Store) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete = ""
}

// Tasks returns the full collection in insertion order.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Visible returns the filtered subset, recomputing first if the calendar day
// changed since the last computation.
func (s *Store) Visible() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshIfStale()
	return slices.Clone(s.visible)
}

func (s *Store) Get(id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return s.tasks[idx], nil
}

func (s *Store) Counts() domain.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CountTasks(s.tasks)
}

func (s *Store) Theme() domain.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Filters() domain.FilterCriteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Store) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshIfStale()

	snap := Snapshot{
		Tasks:   slices.Clone(s.tasks),
		Visible: slices.Clone(s.visible),
		Loading: s.loading,
		Theme:   s.theme,
		Counts:  domain.CountTasks(s.tasks),
		Filters: s.filters,
		Search:  s.search,
		Editor:  s.editor(),
	}
	if idx := s.indexOf(s.pendingDelete); idx >= 0 {
		task := s.tasks[idx]
		snap.Deletion.Task = &task
	}
	return snap
}

func (s *Store) create(ctx context.Context, draft domain.Draft) domain.Task {
	task := domain.Task{
		ID:       s.newID(),
		Category: domain.CategoryOther,
		Priority: domain.PriorityMedium,
		DueDate:  s.today(),
	}
	draft.Apply(&task)

	s.tasks = append(s.tasks, task)
	s.commit(ctx)
	s.logger.Debug("task created", zap.String("task_id", task.ID))
	return task
}

func (s *Store) update(ctx context.Context, id string, draft domain.Draft) (domain.Task, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	draft.Apply(&s.tasks[idx])
	s.commit(ctx)
	s.logger.Debug("task updated", zap.String("task_id", id))
	return s.tasks[idx], nil
}

func (s *Store) remove(ctx context.Context, id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ErrTaskNotFound
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	if s.editID == id {
		s.closeEditor()
	}
	if s.pendingDelete == id {
		s.pendingDelete = ""
	}
	s.commit(ctx)
	s.logger.Debug("task deleted", zap.String("task_id", id))
	return nil
}

// commit persists the collection and refreshes the visible subset.
func (s *Store) commit(ctx context.Context) {
	s.persistTasks(ctx)
	s.recompute()
}

func (s *Store) recompute() {
	today := s.today()
	s.visible = domain.FilterTasks(s.tasks, s.filters, s.search, today)
	s.visibleDay = today
}

func (s *Store) refreshIfStale() {
	if s.visibleDay != s.today() {
		s.recompute()
	}
}

func (s *Store) loadTasks(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, s.opts.TasksKey)
	switch {
	// An empty stored value counts as never saved.
	case errors.Is(err, domain.ErrKeyNotFound), err == nil && raw == "":
		if s.opts.SkipSeed {
			s.tasks = []domain.Task{}
			return nil
		}
		s.tasks = seedTasks(s.today(), s.newID)
		s.persistTasks(ctx)
		s.logger.Info("no saved tasks, seeded demo tasks", zap.Int("count", len(s.tasks)))
		return nil
	case err != nil:
		return domain.WrapError(domain.ErrCodeInternal, "load tasks", err)
	}

	tasks, err := decodeTasks(raw)
	if err != nil {
		// The malformed value stays in storage until the next mutation.
		s.logger.Warn("discarding malformed saved tasks", zap.Error(err))
		s.tasks = []domain.Task{}
		return nil
	}
	s.tasks = s.dedupe(tasks)
	return nil
}

func (s *Store) loadTheme(ctx context.Context) {
	raw, err := s.kv.Get(ctx, s.opts.ThemeKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.logger.Warn("failed to load theme, using light", zap.Error(err))
		}
		s.theme = domain.ThemeLight
		return
	}
	s.theme = domain.ParseTheme(raw)
}

func (s *Store) persistTasks(ctx context.Context) {
	payload, err := encodeTasks(s.tasks)
	if err != nil {
		s.logger.Error("failed to encode tasks", zap.Error(err))
		return
	}
	s.write(ctx, s.opts.TasksKey, payload)
}

// write stores value under key. Failed writes go to the snapshot buffer; the
// in-memory state stays authoritative either way.
func (s *Store) write(ctx context.Context, key, value string) {
	err := s.kv.Set(ctx, key, value)
	if err == nil {
		return
	}
	s.logger.Error("failed to persist snapshot", zap.String("key", key), zap.Error(err))
	if s.buffer == nil {
		return
	}
	if bufErr := s.buffer.BufferSnapshot(ctx, key, value); bufErr != nil {
		s.logger.Error("failed to buffer snapshot", zap.String("key", key), zap.Error(bufErr))
		return
	}
	s.logger.Warn("snapshot buffered", zap.String("key", key))
}

// dedupe keeps the first task for every id and assigns ids to tasks without one.
func (s *Store) dedupe(tasks []domain.Task) []domain.Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if _, dup := seen[task.ID]; dup {
			s.logger.Warn("dropping saved task with duplicate id", zap.String("task_id", task.ID))
			continue
		}
		seen[task.ID] = struct{}{}
		out = append(out, task)
	}
	return out
}

func (s *Store) newID() string {
	for {
		id := uuid.NewString()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) editor() Editor {
	ed := Editor{Mode: s.editMode}
	if s.editMode == EditorEdit {
		if idx := s.indexOf(s.editID); idx >= 0 {
			task := s.tasks[idx]
			ed.Task = &task
		}
	}
	return ed
}

func (s *Store) closeEditor() {
	s.editMode = EditorClosed
	s.editID = ""
}

func (s *Store) today() domain.Date {
	return domain.DateOf(s.opts.Now(), s.opts.Location)
}

func encodeTasks(tasks []domain.Task) (string, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeTasks(raw string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}
