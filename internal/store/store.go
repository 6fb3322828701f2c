// Package store owns the canonical task collection, the undo stack and the
// filter and pagination state. Every mutation goes through a Store method,
// which reconciles pagination and hands a snapshot to the Persister.
package store

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskpad/internal/idgen"
	"taskpad/internal/task"
)

// Snapshot is the persisted subset of store state. Filter state is
// session-local and is not part of it.
type Snapshot struct {
	Tasks        []task.Task
	DeletedTasks []task.DeletedTask
	Pagination   task.PaginationState
}

// EmptySnapshot returns the state of a fresh install. ItemsPerPage is left
// unset so Restore applies the configured page size.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Tasks:        []task.Task{},
		DeletedTasks: []task.DeletedTask{},
		Pagination:   task.PaginationState{CurrentPage: 1, TotalPages: 1},
	}
}

// Persister receives a snapshot after every committed mutation.
type Persister interface {
	Save(Snapshot) error
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithUndoLimit caps the undo stack. Zero means unbounded; when the cap is
// hit the oldest records are dropped.
func WithUndoLimit(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.undoLimit = n
		}
	}
}

// WithItemsPerPage sets the page size used when no persisted pagination
// overrides it.
func WithItemsPerPage(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.defaultPerPage = n
		}
	}
}

// WithStatusFilter sets the status filter the store starts with. Unknown
// values mean all.
func WithStatusFilter(f task.StatusFilter) Option {
	return func(s *Store) { s.filter.Status = task.ParseStatus(string(f)) }
}

type Store struct {
	mu sync.Mutex

	tasks      []task.Task
	deleted    []task.DeletedTask
	filter     task.FilterState
	pagination task.PaginationState

	persister      Persister
	log            *zap.Logger
	now            func() time.Time
	newID          idgen.Generator
	undoLimit      int
	defaultPerPage int
}

// New returns an empty store.
func New(opts ...Option) *Store {
	return Restore(EmptySnapshot(), opts...)
}

// Restore builds a store from a previously persisted snapshot. Duplicate IDs
// in the snapshot are dropped, keeping the first occurrence.
func Restore(snap Snapshot, opts ...Option) *Store {
	s := &Store{
		filter:         task.DefaultFilter(),
		log:            zap.NewNop(),
		now:            time.Now,
		newID:          idgen.New,
		defaultPerPage: task.DefaultItemsPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{}, len(snap.Tasks))
	s.tasks = make([]task.Task, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		s.tasks = append(s.tasks, t)
	}
	s.deleted = append([]task.DeletedTask{}, snap.DeletedTasks...)
	s.trimUndo()

	s.pagination = snap.Pagination
	if s.pagination.ItemsPerPage < 1 {
		s.pagination.ItemsPerPage = s.defaultPerPage
	}
	if s.pagination.CurrentPage < 1 {
		s.pagination.CurrentPage = 1
	}
	s.refreshTotal()
	if s.pagination.CurrentPage > s.pagination.TotalPages {
		s.pagination.CurrentPage = s.pagination.TotalPages
	}
	return s
}

// AddTask prepends a new task. Blank text is ignored and reported as false.
func (s *Store) AddTask(text string) (task.Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return task.Task{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := task.Task{ID: s.newID(), Text: text, CreatedAt: s.now()}
	s.tasks = append([]task.Task{t}, s.tasks...)
	s.pagination.CurrentPage = 1
	s.commit("add", zap.String("id", t.ID))
	return t, true
}

func (s *Store) ToggleTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.clampPage()
	s.commit("toggle", zap.String("id", id), zap.Bool("completed", s.tasks[i].Completed))
	return true
}

// DeleteTask removes a task and pushes an undo record. The current page is
// clamped down so it stays within the remaining visible pages.
func (s *Store) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.deleted = append([]task.DeletedTask{{Task: removed, DeletedAt: s.now()}}, s.deleted...)
	s.trimUndo()

	s.clampPage()
	s.commit("delete", zap.String("id", id), zap.Int("undo_depth", len(s.deleted)))
	return true
}

// UndoDelete restores the most recently deleted task to the front of the
// collection.
func (s *Store) UndoDelete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.deleted) == 0 {
		return false
	}
	rec := s.deleted[0]
	s.deleted = s.deleted[1:]
	if s.indexOf(rec.Task.ID) >= 0 {
		// The ID went live again; restoring would duplicate it.
		s.log.Warn("discarding undo record for live task", zap.String("id", rec.Task.ID))
	} else {
		s.tasks = append([]task.Task{rec.Task}, s.tasks...)
	}
	s.pagination.CurrentPage = 1
	s.commit("undo", zap.String("id", rec.Task.ID))
	return true
}

func (s *Store) UpdateTask(id, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Text = text
	s.clampPage()
	s.commit("update", zap.String("id", id))
	return true
}

// ClearCompleted permanently removes every completed task. No undo records
// are created. It returns the number of tasks removed.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	s.pagination.CurrentPage = 1
	s.commit("clear_completed", zap.Int("removed", removed))
	return removed
}

func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.SearchQuery = q
	s.pagination.CurrentPage = 1
	s.commit("search", zap.String("query", q))
}

func (s *Store) SetStatusFilter(f task.StatusFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.Status = task.ParseStatus(string(f))
	s.pagination.CurrentPage = 1
	s.commit("status_filter", zap.String("status", string(s.filter.Status)))
}

// SetDateFilter replaces the date filter as a whole.
func (s *Store) SetDateFilter(d task.DateFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.Date = d
	s.pagination.CurrentPage = 1
	s.commit("date_filter")
}

func (s *Store) ClearDateFilter() {
	s.SetDateFilter(task.DateFilter{})
}

// SetCurrentPage stores p as given. Callers validate the range; an
// out-of-range page renders as an empty slice.
func (s *Store) SetCurrentPage(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pagination.CurrentPage = p
	s.commit("page", zap.Int("page", p))
}

// SetItemsPerPage ignores non-positive sizes.
func (s *Store) SetItemsPerPage(n int) bool {
	if n < 1 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pagination.ItemsPerPage = n
	s.pagination.CurrentPage = 1
	s.commit("page_size", zap.Int("items_per_page", n))
	return true
}

func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Task{}, s.tasks...)
}

func (s *Store) DeletedTasks() []task.DeletedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.DeletedTask{}, s.deleted...)
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deleted) > 0
}

func (s *Store) Filter() task.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Store) Pagination() task.PaginationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Visible returns the tasks passing the current status, search and date
// filters, newest first.
func (s *Store) Visible() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Visible(s.tasks, s.filter)
}

// Page returns the current page of visible tasks and the page count.
func (s *Store) Page() ([]task.Task, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Paginate(task.Visible(s.tasks, s.filter), s.pagination.CurrentPage, s.pagination.ItemsPerPage)
}

// Stats counts the whole live collection, ignoring filters.
func (s *Store) Stats() task.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.ComputeStats(s.tasks)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Tasks:        append([]task.Task{}, s.tasks...),
		DeletedTasks: append([]task.DeletedTask{}, s.deleted...),
		Pagination:   s.pagination,
	}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) trimUndo() {
	if s.undoLimit > 0 && len(s.deleted) > s.undoLimit {
		s.deleted = s.deleted[:s.undoLimit]
	}
}

// clampPage keeps the current page within [1, TotalPages] after a mutation
// that can shrink the visible set.
func (s *Store) clampPage() {
	s.refreshTotal()
	s.pagination.CurrentPage = max(1, min(s.pagination.CurrentPage, s.pagination.TotalPages))
}

func (s *Store) refreshTotal() {
	visible := task.Visible(s.tasks, s.filter)
	s.pagination.TotalPages = task.TotalPages(len(visible), s.pagination.ItemsPerPage)
}

// commit runs after a mutation with s.mu held.
func (s *Store) commit(op string, fields ...zap.Field) {
	s.refreshTotal()
	s.log.Debug(op, fields...)
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.snapshot()); err != nil {
		s.log.Warn("persist failed", zap.String("op", op), zap.Error(err))
	}
}
