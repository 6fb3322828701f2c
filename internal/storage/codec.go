package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"taskpad/internal/store"
	"taskpad/internal/task"
)

const formatVersion = 1

type taskJSON struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type deletedJSON struct {
	Task      taskJSON  `json:"task"`
	DeletedAt time.Time `json:"deletedAt"`
}

type paginationJSON struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
}

type stateJSON struct {
	Version      int            `json:"version"`
	Tasks        []taskJSON     `json:"tasks"`
	DeletedTasks []deletedJSON  `json:"deletedTasks"`
	Pagination   paginationJSON `json:"pagination"`
}

// Encode renders a snapshot as JSON with RFC 3339 timestamps.
func Encode(snap store.Snapshot) ([]byte, error) {
	out := stateJSON{
		Version:      formatVersion,
		Tasks:        make([]taskJSON, 0, len(snap.Tasks)),
		DeletedTasks: make([]deletedJSON, 0, len(snap.DeletedTasks)),
		Pagination: paginationJSON{
			CurrentPage:  snap.Pagination.CurrentPage,
			ItemsPerPage: snap.Pagination.ItemsPerPage,
			TotalPages:   snap.Pagination.TotalPages,
		},
	}
	for _, t := range snap.Tasks {
		out.Tasks = append(out.Tasks, toJSON(t))
	}
	for _, d := range snap.DeletedTasks {
		out.DeletedTasks = append(out.DeletedTasks, deletedJSON{Task: toJSON(d.Task), DeletedAt: d.DeletedAt})
	}
	return json.Marshal(out)
}

func toJSON(t task.Task) taskJSON {
	return taskJSON{ID: t.ID, Text: t.Text, Completed: t.Completed, CreatedAt: t.CreatedAt}
}

// Incoming documents are read loosely: dates may be text or epoch
// milliseconds, older documents use "todos"/"deletedTodos"/"todo", and the
// state may sit inside a {"state": ..., "version": n} envelope.

type looseTime struct {
	t  time.Time
	ok bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (lt *looseTime) UnmarshalJSON(b []byte) error {
	*lt = looseTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		lt.t, lt.ok = parseTime(s)
		return nil
	}
	if ms, err := strconv.ParseFloat(string(b), 64); err == nil && inMilliRange(ms) {
		lt.t, lt.ok = time.UnixMilli(int64(ms)).UTC(), true
	}
	return nil
}

func inMilliRange(ms float64) bool {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return false
	}
	return ms >= math.MinInt64 && ms < math.MaxInt64
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// looseID accepts string or numeric identifiers.
type looseID string

func (id *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = looseID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	*id = looseID(b)
	return nil
}

type looseTask struct {
	ID        looseID   `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt looseTime `json:"createdAt"`
}

type looseDeleted struct {
	Task      *looseTask `json:"task"`
	Todo      *looseTask `json:"todo"`
	DeletedAt looseTime  `json:"deletedAt"`
}

type loosePagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// looseState keeps records raw so one mistyped record cannot fail the
// whole document.
type looseState struct {
	Tasks        []json.RawMessage `json:"tasks"`
	Todos        []json.RawMessage `json:"todos"`
	DeletedTasks []json.RawMessage `json:"deletedTasks"`
	DeletedTodos []json.RawMessage `json:"deletedTodos"`
	Pagination   json.RawMessage   `json:"pagination"`
}

type envelope struct {
	State json.RawMessage `json:"state"`
}

// Decode parses a persisted document. Records that cannot be migrated are
// dropped; their count is returned alongside the snapshot. An error means
// the document as a whole is unreadable.
func Decode(data []byte) (store.Snapshot, int, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return store.Snapshot{}, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	body := data
	if len(env.State) > 0 && !bytes.Equal(bytes.TrimSpace(env.State), []byte("null")) {
		body = env.State
	}
	var in looseState
	if err := json.Unmarshal(body, &in); err != nil {
		return store.Snapshot{}, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	snap := store.EmptySnapshot()
	dropped := 0
	seen := map[string]struct{}{}
	for _, raw := range append(in.Tasks, in.Todos...) {
		var lt looseTask
		if err := json.Unmarshal(raw, &lt); err != nil {
			dropped++
			continue
		}
		t, ok := lt.task()
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[t.ID]; dup {
			dropped++
			continue
		}
		seen[t.ID] = struct{}{}
		snap.Tasks = append(snap.Tasks, t)
	}

	for _, raw := range append(in.DeletedTasks, in.DeletedTodos...) {
		var ld looseDeleted
		if err := json.Unmarshal(raw, &ld); err != nil {
			dropped++
			continue
		}
		src := ld.Task
		if src == nil {
			src = ld.Todo
		}
		if src == nil {
			dropped++
			continue
		}
		t, ok := src.task()
		if !ok {
			dropped++
			continue
		}
		deletedAt := t.CreatedAt
		if ld.DeletedAt.ok {
			deletedAt = ld.DeletedAt.t
		}
		snap.DeletedTasks = append(snap.DeletedTasks, task.DeletedTask{Task: t, DeletedAt: deletedAt})
	}

	var p loosePagination
	if len(in.Pagination) > 0 && json.Unmarshal(in.Pagination, &p) == nil {
		if p.CurrentPage > 0 {
			snap.Pagination.CurrentPage = p.CurrentPage
		}
		if p.ItemsPerPage > 0 {
			snap.Pagination.ItemsPerPage = p.ItemsPerPage
		}
	}
	return snap, dropped, nil
}

func (lt looseTask) task() (task.Task, bool) {
	text := strings.TrimSpace(lt.Text)
	if lt.ID == "" || text == "" || !lt.CreatedAt.ok {
		return task.Task{}, false
	}
	return task.Task{ID: string(lt.ID), Text: text, Completed: lt.Completed, CreatedAt: lt.CreatedAt.t}, true
}
