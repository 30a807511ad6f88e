// Package tui renders the task dashboard in the terminal.
//
// The model never holds task data of its own: every frame is drawn from a
// client.Store snapshot plus cursor and input state. Store operations run as
// tea commands and the store's change signal triggers the redraw.
package tui

import (
	"context"
	"strings"
	"time"

	"task_manager/internal/client"
	"task_manager/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// noticeTTL is how long a success or failure notice stays before the
// request states are reset.
const noticeTTL = 3 * time.Second

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeCreate
	modeEdit
)

type changedMsg struct{}

type clearNoticeMsg struct{}

type eventMsg struct{ ev domain.TaskEvent }

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx    context.Context
	store  *client.Store
	events <-chan domain.TaskEvent

	snap     client.Snapshot
	filter   domain.TaskFilter
	cursor   int
	mode     mode
	input    textinput.Model
	editing  int64
	clearing bool
	width    int
	quitting bool
}

// New builds the dashboard over store. events may be nil when live updates
// are unavailable.
func New(ctx context.Context, store *client.Store, events <-chan domain.TaskEvent) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return Model{
		ctx:    ctx,
		store:  store,
		events: events,
		snap:   store.Snapshot(),
		input:  ti,
	}
}

// Run starts the dashboard and blocks until the user quits. watch, when not
// nil, feeds live task events into the store.
func Run(ctx context.Context, store *client.Store, watch func(context.Context, func(domain.TaskEvent)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var events chan domain.TaskEvent
	if watch != nil {
		events = make(chan domain.TaskEvent, 16)
		go func() {
			_ = watch(ctx, func(ev domain.TaskEvent) {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			})
		}()
	}

	_, err := tea.NewProgram(New(ctx, store, events), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForChange(),
		m.refresh(),
		m.run(m.store.LoadUser),
	}
	if m.events != nil {
		cmds = append(cmds, m.waitForEvent())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.store.Changes()
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

// run executes op as a command. Its outcome lands in the store's request states.
func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = op(ctx)
		return nil
	}
}

// fetchTasks reserves the fetch's place in the store's order before the Cmd
// runs, so results follow keystroke order.
func (m Model) fetchTasks(f domain.TaskFilter) tea.Cmd {
	call := m.store.StartFetchTasks(m.ctx, f)
	return func() tea.Msg {
		_ = call()
		return nil
	}
}

func (m Model) refresh() tea.Cmd {
	f := m.filter
	return m.run(func(ctx context.Context) error { return m.store.Refresh(ctx, f) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case changedMsg:
		m.snap = m.store.Snapshot()
		m.clampCursor()
		cmds := []tea.Cmd{m.waitForChange()}
		if text, _ := notice(m.snap); text != "" && !m.clearing {
			m.clearing = true
			cmds = append(cmds, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{} }))
		}
		return m, tea.Batch(cmds...)

	case clearNoticeMsg:
		m.clearing = false
		m.store.Reset()
		return m, nil

	case eventMsg:
		m.store.ApplyEvent(msg.ev)
		return m, tea.Batch(m.waitForEvent(), m.run(m.store.FetchStats))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeCreate, modeEdit:
			return m.updateForm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "r":
		return m, m.refresh()
	case "f":
		m.filter.Status = nextFilter(m.filter.Status)
		m.cursor = 0
		f := m.filter
		return m, m.fetchTasks(f)
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.filter.Search)
		m.input.Placeholder = "search titles"
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "n":
		m.mode = modeCreate
		m.input.SetValue("")
		m.input.Placeholder = "new task title"
		return m, m.input.Focus()
	case "e":
		if t := m.selected(); t != nil {
			m.mode = modeEdit
			m.editing = t.ID
			m.input.SetValue(t.Title)
			m.input.Placeholder = "title"
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case "s", " ":
		if t := m.selected(); t != nil {
			next := nextStatus(t.Status)
			id := t.ID
			return m, m.run(func(ctx context.Context) error {
				if _, err := m.store.UpdateTask(ctx, id, domain.TaskPatch{Status: &next}); err != nil {
					return err
				}
				return m.store.FetchStats(ctx)
			})
		}
	case "d", "x":
		if t := m.selected(); t != nil {
			id := t.ID
			return m, m.run(func(ctx context.Context) error {
				if err := m.store.DeleteTask(ctx, id); err != nil {
					return err
				}
				return m.store.FetchStats(ctx)
			})
		}
	}
	return m, nil
}

// updateSearch refetches on every edit of the query.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		if m.filter.Search == "" {
			return m, nil
		}
		m.filter.Search = ""
		f := m.filter
		return m, m.fetchTasks(f)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	query := strings.TrimSpace(m.input.Value())
	if query == m.filter.Search {
		return m, cmd
	}
	m.filter.Search = query
	m.cursor = 0
	f := m.filter
	return m, tea.Batch(cmd, m.fetchTasks(f))
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		title := m.input.Value()
		creating := m.mode == modeCreate
		id := m.editing
		m.mode = modeBrowse
		m.input.Blur()
		if creating {
			m.cursor = 0
			return m, m.run(func(ctx context.Context) error {
				if _, err := m.store.CreateTask(ctx, title, ""); err != nil {
					return err
				}
				return m.store.FetchStats(ctx)
			})
		}
		return m, m.run(func(ctx context.Context) error {
			_, err := m.store.UpdateTask(ctx, id, domain.TaskPatch{Title: &title})
			return err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) selected() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.snap.Tasks) {
		return nil
	}
	return m.snap.Tasks[m.cursor]
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Tasks) {
		m.cursor = len(m.snap.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// nextFilter cycles All -> Todo -> In Progress -> Completed -> All.
func nextFilter(s domain.Status) domain.Status {
	if s == "" {
		return domain.Statuses[0]
	}
	for i, st := range domain.Statuses {
		if st == s && i+1 < len(domain.Statuses) {
			return domain.Statuses[i+1]
		}
	}
	return ""
}

// nextStatus cycles Todo -> In Progress -> Completed -> Todo.
func nextStatus(s domain.Status) domain.Status {
	for i, st := range domain.Statuses {
		if st == s {
			return domain.Statuses[(i+1)%len(domain.Statuses)]
		}
	}
	return domain.StatusTodo
}
