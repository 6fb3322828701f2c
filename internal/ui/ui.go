package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskpad/internal/config"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
	modeDate
)

const dateLayout = "2006-01-02"

type styles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	done     lipgloss.Style
	meta     lipgloss.Style
	status   lipgloss.Style
	help     lipgloss.Style
	emphasis lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
		meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		emphasis: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	}
}

type Model struct {
	store      *store.Store
	cfg        config.Config
	page       []task.Task
	totalPages int
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *task.Task
	editID     string
	styles     styles
}

// New builds the UI model over s. The store is shared, not copied: every
// Update goes through its operations.
func New(s *store.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  s,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, %s to toggle, '%s' to delete.", cfg.Keys.Add, keyLabel(cfg.Keys.Toggle), cfg.Keys.Delete),
		styles: defaultStyles(),
	}
	m.refresh()
	return m
}

func Run(s *store.Store, cfg config.Config) error {
	program := tea.NewProgram(New(s, cfg))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode != modeList {
			return m.updateInputMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = max(10, msg.Width-10)
	}
	return m, nil
}

func (m *Model) refresh() {
	m.page, m.totalPages = m.store.Page()
	m.cursor = clampCursor(m.cursor, len(m.page))
}

func (m Model) selected() (task.Task, bool) {
	if len(m.page) == 0 {
		return task.Task{}, false
	}
	return m.page[clampCursor(m.cursor, len(m.page))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.page))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.page))
	case k.Add:
		return m.startInput(modeAdd, "", "Task text", "Add mode: type a task and press Enter")
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		m.editID = t.ID
		return m.startInput(modeEdit, t.Text, "Task text", "Edit mode: Enter to save, Esc to cancel")
	case k.Search:
		return m.startInput(modeSearch, m.store.Filter().SearchQuery, "Search text (blank clears)", "Search: Enter to apply")
	case k.Date:
		return m.startInput(modeDate, formatDateFilter(m.store.Filter().Date), "YYYY-MM-DD or FROM..TO (blank clears)", "Date filter: Enter to apply")
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.store.ToggleTask(t.ID) {
			m.status = "Toggled task"
		}
		m.refresh()
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Text)
	case k.Undo:
		if m.store.UndoDelete() {
			m.cursor = 0
			m.status = "Restored deleted task"
		} else {
			m.status = "Nothing to undo"
		}
		m.refresh()
	case k.ClearCompleted:
		n := m.store.ClearCompleted()
		m.status = fmt.Sprintf("Cleared %d completed task(s)", n)
		m.refresh()
	case k.Filter:
		next := m.store.Filter().Status.Next()
		m.store.SetStatusFilter(next)
		m.cursor = 0
		m.status = "Showing " + string(next)
		m.refresh()
	case k.NextPage, "right":
		m.gotoPage(m.store.Pagination().CurrentPage + 1)
	case k.PrevPage, "left":
		m.gotoPage(m.store.Pagination().CurrentPage - 1)
	case k.PageSize:
		size := nextPageSize(m.store.Pagination().ItemsPerPage)
		m.store.SetItemsPerPage(size)
		m.cursor = 0
		m.status = fmt.Sprintf("%d tasks per page", size)
		m.refresh()
	}
	return m, nil
}

// gotoPage clamps p into [1, totalPages] before handing it to the store.
func (m *Model) gotoPage(p int) {
	p = min(max(p, 1), m.totalPages)
	if p == m.store.Pagination().CurrentPage {
		return
	}
	m.store.SetCurrentPage(p)
	m.cursor = 0
	m.refresh()
}

func nextPageSize(current int) int {
	i := slices.Index(task.PageSizes, current)
	return task.PageSizes[(i+1)%len(task.PageSizes)]
}

func (m Model) startInput(md mode, value, placeholder, status string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.status = status
	return m, textinput.Blink
}

func (m Model) leaveInput(status string) Model {
	m.mode = modeList
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
	m.status = status
	return m
}

func (m Model) updateInputMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		return m.leaveInput("Cancelled"), nil
	case m.cfg.Keys.Confirm, "enter":
		return m.submitInput(m.input.Value())
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) submitInput(value string) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAdd:
		if _, ok := m.store.AddTask(value); !ok {
			m.status = "Task text cannot be empty"
			return m, nil
		}
		m.cursor = 0
		m = m.leaveInput("Added task")
	case modeEdit:
		if !m.store.UpdateTask(m.editID, value) {
			m.status = "Task text cannot be empty"
			return m, nil
		}
		m = m.leaveInput("Updated task")
	case modeSearch:
		q := strings.TrimSpace(value)
		m.store.SetSearchQuery(q)
		m.cursor = 0
		if q == "" {
			m = m.leaveInput("Search cleared")
		} else {
			m = m.leaveInput(fmt.Sprintf("Searching for %q", q))
		}
	case modeDate:
		d, err := parseDateFilter(value, time.Local)
		if err != nil {
			m.status = fmt.Sprintf("date invalid: %v", err)
			return m, nil
		}
		if d.IsZero() {
			m.store.ClearDateFilter()
		} else {
			m.store.SetDateFilter(d)
		}
		m.cursor = 0
		m = m.leaveInput("Date filter: " + emptyPlaceholder(formatDateFilter(d)))
	}
	m.refresh()
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
	case "y", "Y":
		if m.pendingDel == nil || !m.store.DeleteTask(m.pendingDel.ID) {
			m.status = "Nothing to delete"
		} else {
			m.status = fmt.Sprintf("Deleted task (%s to undo)", m.cfg.Keys.Undo)
		}
		m.refresh()
	default:
		return m, nil
	}
	m.confirmDel = false
	m.pendingDel = nil
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("taskpad"))
	b.WriteString("  ")
	b.WriteString(m.styles.meta.Render(m.renderFilterLine()))
	b.WriteString("\n\n")

	if len(m.page) == 0 {
		if m.store.Stats().Total == 0 {
			b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		} else {
			b.WriteString("No tasks match the current filters.")
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	b.WriteString(m.styles.meta.Render(m.renderFooter()))
	b.WriteString("\n")

	if m.mode != modeList {
		b.WriteString("\n")
		b.WriteString(m.styles.emphasis.Render(modeLabel(m.mode) + ": "))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.status.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.page {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = m.styles.cursor.Render(">")
		}
		checkbox := "[ ]"
		text := t.Text
		if t.Completed {
			checkbox = "[x]"
			text = m.styles.done.Render(text)
		}
		created := m.styles.meta.Render(t.CreatedAt.In(time.Local).Format(dateLayout))
		b.WriteString(fmt.Sprintf("%s %s %s  %s\n", cursor, checkbox, text, created))
	}
	return b.String()
}

func (m Model) renderFilterLine() string {
	f := m.store.Filter()
	parts := []string{"status:" + string(f.Status)}
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		parts = append(parts, fmt.Sprintf("search:%q", q))
	}
	if !f.Date.IsZero() {
		parts = append(parts, "date:"+formatDateFilter(f.Date))
	}
	return strings.Join(parts, " • ")
}

func (m Model) renderFooter() string {
	p := m.store.Pagination()
	s := m.store.Stats()
	undo := ""
	if m.store.CanUndo() {
		undo = fmt.Sprintf(" • %s undo", m.cfg.Keys.Undo)
	}
	return fmt.Sprintf("Page %d/%d • %d per page • %d total, %d active, %d completed%s",
		p.CurrentPage, m.totalPages, p.ItemsPerPage, s.Total, s.Active, s.Completed, undo)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s undo • %s clear done • %s search • %s status • %s date • %s/%s page • %s size • %s quit",
		k.Up, k.Down, k.Add, k.Edit, keyLabel(k.Toggle), k.Delete, k.Undo, k.ClearCompleted, k.Search, k.Filter, k.Date, k.PrevPage, k.NextPage, k.PageSize, k.Quit)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func modeLabel(md mode) string {
	switch md {
	case modeAdd:
		return "Add task"
	case modeEdit:
		return "Edit task"
	case modeSearch:
		return "Search"
	case modeDate:
		return "Date"
	default:
		return ""
	}
}

// parseDateFilter reads "DAY", "FROM..TO", "FROM.." or "..TO". Blank input
// clears the filter.
func parseDateFilter(v string, loc *time.Location) (task.DateFilter, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return task.DateFilter{}, nil
	}
	parse := func(s string) (*time.Time, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	from, to, isRange := strings.Cut(v, "..")
	if !isRange {
		day, err := parse(v)
		if err != nil {
			return task.DateFilter{}, err
		}
		return task.DateFilter{Selected: day}, nil
	}
	start, err := parse(from)
	if err != nil {
		return task.DateFilter{}, err
	}
	end, err := parse(to)
	if err != nil {
		return task.DateFilter{}, err
	}
	return task.DateFilter{Start: start, End: end}, nil
}

func formatDateFilter(d task.DateFilter) string {
	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	}
	switch {
	case d.Selected != nil:
		return format(d.Selected)
	case d.Start != nil || d.End != nil:
		return format(d.Start) + ".." + format(d.End)
	}
	return ""
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(none)"
	}
	return v
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
