package task

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func texts(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

func sample() []Task {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return []Task{
		{ID: "3", Text: "Buy bread", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "2", Text: "Walk dog", Completed: true, CreatedAt: base.Add(time.Hour)},
		{ID: "1", Text: "Buy milk", CreatedAt: base},
	}
}

func TestFilterByStatusAndSearch(t *testing.T) {
	cases := []struct {
		name   string
		status StatusFilter
		query  string
		want   []string
	}{
		{"all no query", StatusAll, "", []string{"Buy bread", "Walk dog", "Buy milk"}},
		{"blank query is no-op", StatusAll, "   ", []string{"Buy bread", "Walk dog", "Buy milk"}},
		{"case-insensitive search", StatusAll, "buy", []string{"Buy bread", "Buy milk"}},
		{"query is trimmed", StatusAll, "  DOG ", []string{"Walk dog"}},
		{"active", StatusActive, "", []string{"Buy bread", "Buy milk"}},
		{"completed", StatusCompleted, "", []string{"Walk dog"}},
		{"intersection", StatusCompleted, "buy", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := texts(FilterByStatusAndSearch(sample(), tc.status, tc.query))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterByStatusAndSearch_DoesNotMutateInput(t *testing.T) {
	in := sample()
	before := append([]Task(nil), in...)
	out := FilterByStatusAndSearch(in, StatusAll, "")
	out[0].Text = "changed"
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("input mutated: %+v", in)
	}
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestFilterByDate(t *testing.T) {
	tasks := []Task{
		{ID: "a", Text: "early", CreatedAt: day(2024, 1, 1, 0)},
		{ID: "b", Text: "late", CreatedAt: day(2024, 1, 1, 23).Add(59 * time.Minute)},
		{ID: "c", Text: "next", CreatedAt: day(2024, 1, 2, 12)},
		{ID: "d", Text: "week", CreatedAt: day(2024, 1, 8, 6)},
	}
	cases := []struct {
		name string
		f    DateFilter
		want []string
	}{
		{"none", DateFilter{}, []string{"early", "late", "next", "week"}},
		{"selected ignores time of day", DateFilter{Selected: ptr(day(2024, 1, 1, 15))}, []string{"early", "late"}},
		{"selected wins over range", DateFilter{Selected: ptr(day(2024, 1, 2, 0)), Start: ptr(day(2024, 1, 1, 0)), End: ptr(day(2024, 1, 8, 0))}, []string{"next"}},
		{"inclusive range", DateFilter{Start: ptr(day(2024, 1, 1, 20)), End: ptr(day(2024, 1, 2, 1))}, []string{"early", "late", "next"}},
		{"start only", DateFilter{Start: ptr(day(2024, 1, 2, 23))}, []string{"next", "week"}},
		{"end only", DateFilter{End: ptr(day(2024, 1, 1, 0))}, []string{"early", "late"}},
		{"reversed range is empty", DateFilter{Start: ptr(day(2024, 1, 8, 0)), End: ptr(day(2024, 1, 1, 0))}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := texts(FilterByDate(tasks, tc.f))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterByDate_UsesBoundLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2024-01-01 20:00 UTC is 2024-01-02 05:00 in Tokyo.
	tasks := []Task{{ID: "a", Text: "x", CreatedAt: day(2024, 1, 1, 20)}}
	got := FilterByDate(tasks, DateFilter{Selected: ptr(time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo))})
	if len(got) != 1 {
		t.Fatalf("expected match in bound's zone, got %v", got)
	}
}

func TestPaginate_Properties(t *testing.T) {
	for n := 0; n <= 23; n++ {
		tasks := make([]Task, n)
		for i := range tasks {
			tasks[i] = Task{ID: fmt.Sprint(i)}
		}
		for _, size := range []int{1, 5, 10, 20, 50} {
			wantTotal := max(1, (n+size-1)/size)
			for page := -1; page <= wantTotal+1; page++ {
				slice, total := Paginate(tasks, page, size)
				if total != wantTotal {
					t.Fatalf("n=%d size=%d: total=%d want %d", n, size, total, wantTotal)
				}
				if len(slice) > size {
					t.Fatalf("n=%d size=%d page=%d: len=%d", n, size, page, len(slice))
				}
				if (page < 1 || page > wantTotal) && len(slice) != 0 {
					t.Fatalf("out-of-range page %d returned %d items", page, len(slice))
				}
			}
		}
	}
}

func TestPaginate_Slices(t *testing.T) {
	tasks := make([]Task, 11)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprint(i)}
	}
	page, total := Paginate(tasks, 2, 10)
	if total != 2 || len(page) != 1 || page[0].ID != "10" {
		t.Fatalf("page 2: total=%d page=%+v", total, page)
	}
	page, _ = Paginate(tasks, 1, 10)
	if len(page) != 10 || page[0].ID != "0" || page[9].ID != "9" {
		t.Fatalf("page 1: %+v", page)
	}
	if _, total := Paginate(tasks, 1, 0); total != 11 {
		t.Fatalf("non-positive page size should act as 1, total=%d", total)
	}
}

func TestComputeStats(t *testing.T) {
	for _, tasks := range [][]Task{nil, sample(), {{Completed: true}}} {
		s := ComputeStats(tasks)
		if s.Total != len(tasks) || s.Total != s.Active+s.Completed {
			t.Fatalf("inconsistent stats %+v for %d tasks", s, len(tasks))
		}
	}
	if s := ComputeStats(sample()); s.Active != 2 || s.Completed != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestParseStatusAndNext(t *testing.T) {
	if ParseStatus(" Active ") != StatusActive || ParseStatus("completed") != StatusCompleted || ParseStatus("bogus") != StatusAll {
		t.Fatalf("ParseStatus mismatch")
	}
	f := StatusAll
	for _, want := range []StatusFilter{StatusActive, StatusCompleted, StatusAll} {
		f = f.Next()
		if f != want {
			t.Fatalf("Next: got %s want %s", f, want)
		}
	}
}
