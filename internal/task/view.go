package task

import (
	"strings"
	"time"
)

// FilterByStatusAndSearch keeps tasks whose text contains query
// (case-insensitive) and whose completion matches status. A blank query
// matches everything.
func FilterByStatusAndSearch(tasks []Task, status StatusFilter, query string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q != "" && !strings.Contains(strings.ToLower(t.Text), q) {
			continue
		}
		switch status {
		case StatusActive:
			if t.Completed {
				continue
			}
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// FilterByDate applies d to the tasks' creation day. First match wins:
// Selected, then Start+End, then Start alone, then End alone.
func FilterByDate(tasks []Task, d DateFilter) []Task {
	out := make([]Task, 0, len(tasks))
	if d.IsZero() {
		return append(out, tasks...)
	}
	for _, t := range tasks {
		if matchDate(t.CreatedAt, d) {
			out = append(out, t)
		}
	}
	return out
}

func matchDate(created time.Time, d DateFilter) bool {
	switch {
	case d.Selected != nil:
		return sameDay(created, *d.Selected)
	case d.Start != nil && d.End != nil:
		return onOrAfter(created, *d.Start) && onOrBefore(created, *d.End)
	case d.Start != nil:
		return onOrAfter(created, *d.Start)
	case d.End != nil:
		return onOrBefore(created, *d.End)
	}
	return true
}

// Day arithmetic happens in the bound's location so a filter picked in local
// time matches tasks stored in UTC.

func sameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func onOrAfter(t, bound time.Time) bool {
	return !t.Before(StartOfDay(bound))
}

func onOrBefore(t, bound time.Time) bool {
	return !t.After(EndOfDay(bound))
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Visible applies the full filter state: status and search, then date.
func Visible(tasks []Task, f FilterState) []Task {
	return FilterByDate(FilterByStatusAndSearch(tasks, f.Status, f.SearchQuery), f.Date)
}

// TotalPages is ceil(n/perPage), never less than 1.
func TotalPages(n, perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	pages := (n + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate returns the 1-based page of tasks and the page count. A page
// outside [1, totalPages] yields an empty slice.
func Paginate(tasks []Task, page, perPage int) ([]Task, int) {
	if perPage < 1 {
		perPage = 1
	}
	total := TotalPages(len(tasks), perPage)
	if page < 1 || page > total {
		return []Task{}, total
	}
	start := (page - 1) * perPage
	if start >= len(tasks) {
		return []Task{}, total
	}
	end := min(start+perPage, len(tasks))
	out := make([]Task, end-start)
	copy(out, tasks[start:end])
	return out, total
}

func ComputeStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	return s
}
