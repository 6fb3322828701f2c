// Package task holds the task data model and the pure views derived from it.
package task

import (
	"strings"
	"time"
)

type Task struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// DeletedTask is an undo record for a single deletion.
type DeletedTask struct {
	Task      Task
	DeletedAt time.Time
}

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatus maps a loose string onto a StatusFilter. Unknown values are
// treated as StatusAll.
func ParseStatus(v string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(v))) {
	case StatusActive:
		return StatusActive
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// Next cycles all -> active -> completed -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case StatusAll:
		return StatusActive
	case StatusActive:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// DateFilter restricts tasks by creation day. A nil bound is unset.
type DateFilter struct {
	Selected *time.Time
	Start    *time.Time
	End      *time.Time
}

func (d DateFilter) IsZero() bool {
	return d.Selected == nil && d.Start == nil && d.End == nil
}

type FilterState struct {
	SearchQuery string
	Status      StatusFilter
	Date        DateFilter
}

// DefaultFilter returns the empty filter: no query, all statuses, no dates.
func DefaultFilter() FilterState {
	return FilterState{Status: StatusAll}
}

const DefaultItemsPerPage = 10

// PageSizes are the page sizes offered to the user. Any positive value is
// accepted by the store.
var PageSizes = []int{5, 10, 20, 50}

type PaginationState struct {
	CurrentPage  int
	ItemsPerPage int
	TotalPages   int
}

type Stats struct {
	Total     int
	Active    int
	Completed int
}
