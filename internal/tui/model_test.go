package tui

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"task_manager/internal/client"
	"task_manager/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeAPI struct {
	mu       sync.Mutex
	tasks    []*domain.Task
	searches []string
	updates  []domain.TaskPatch
}

func (f *fakeAPI) Register(context.Context, string, string, string) (*client.AuthResult, error) {
	return &client.AuthResult{}, nil
}

func (f *fakeAPI) Login(context.Context, string, string) (*client.AuthResult, error) {
	return &client.AuthResult{}, nil
}

func (f *fakeAPI) Me(context.Context) (*domain.PublicUser, error) {
	return &domain.PublicUser{ID: 1, Email: "a@x.com", Username: "alice"}, nil
}

func (f *fakeAPI) Logout(context.Context) error { return nil }

func (f *fakeAPI) ListTasks(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, filter.Search)
	out := make([]*domain.Task, 0)
	for _, t := range f.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, title string, _ domain.Status) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &domain.Task{ID: int64(len(f.tasks) + 1), Title: title, Status: domain.StatusTodo}
	f.tasks = append([]*domain.Task{t}, f.tasks...)
	return t, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id int64, p domain.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	for _, t := range f.tasks {
		if t.ID == id {
			if p.Title != nil {
				t.Title = *p.Title
			}
			if p.Status != nil {
				t.Status = *p.Status
			}
			cp := *t
			return &cp, nil
		}
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Message: "Task not found"}
}

func (f *fakeAPI) DeleteTask(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &client.APIError{Status: http.StatusNotFound, Message: "Task not found"}
}

func (f *fakeAPI) Stats(context.Context) (*domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s domain.Stats
	for _, t := range f.tasks {
		s.Add(t.Status)
	}
	return &s, nil
}

func newModel(t *testing.T) (Model, *fakeAPI, *client.Store) {
	t.Helper()
	api := &fakeAPI{tasks: []*domain.Task{
		{ID: 2, Title: "Buy Milk", Status: domain.StatusTodo},
		{ID: 1, Title: "File taxes", Status: domain.StatusCompleted},
	}}
	store := client.NewStore(api)
	m := New(context.Background(), store, nil)
	runCmd(m.refresh())
	runCmd(m.run(store.LoadUser))
	return settle(m), api, store
}

// runCmd executes cmd and any batched commands, abandoning ones that wait on timers.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				runCmd(c)
			}
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func settle(m Model) Model {
	next, _ := m.Update(changedMsg{})
	return next.(Model)
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestViewRendersStoreState(t *testing.T) {
	m, _, _ := newModel(t)
	view := m.View()

	for _, want := range []string{"Task Dashboard", "alice", "Buy Milk", "File taxes", "Total", "In Progress", "Filter: All", "(2 shown)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFilterCycles(t *testing.T) {
	m, _, _ := newModel(t)

	m, cmd := press(m, "f")
	runCmd(cmd)
	m = settle(m)
	if m.filter.Status != domain.StatusTodo {
		t.Fatalf("filter = %q, want Todo", m.filter.Status)
	}
	if len(m.snap.Tasks) != 1 || m.snap.Tasks[0].Title != "Buy Milk" {
		t.Fatalf("unexpected tasks under Todo filter: %+v", m.snap.Tasks)
	}

	for _, want := range []domain.Status{domain.StatusInProgress, domain.StatusCompleted, ""} {
		m, cmd = press(m, "f")
		runCmd(cmd)
		m = settle(m)
		if m.filter.Status != want {
			t.Fatalf("filter = %q, want %q", m.filter.Status, want)
		}
	}
	if len(m.snap.Tasks) != 2 {
		t.Fatalf("want all tasks back, got %d", len(m.snap.Tasks))
	}
}

func TestSearchRefetchesPerKeystroke(t *testing.T) {
	m, api, _ := newModel(t)

	m, cmd := press(m, "/")
	runCmd(cmd)
	for _, k := range []string{"m", "i"} {
		m, cmd = press(m, k)
		runCmd(cmd)
	}
	m, _ = press(m, "enter")
	m = settle(m)

	api.mu.Lock()
	searches := append([]string(nil), api.searches...)
	api.mu.Unlock()
	if got := searches[len(searches)-2:]; got[0] != "m" || got[1] != "mi" {
		t.Fatalf("searches = %v", searches)
	}
	if m.mode != modeBrowse || m.filter.Search != "mi" {
		t.Fatalf("mode=%v search=%q", m.mode, m.filter.Search)
	}
	if len(m.snap.Tasks) != 1 || m.snap.Tasks[0].Title != "Buy Milk" {
		t.Fatalf("tasks = %+v", m.snap.Tasks)
	}
}

func TestSearchResultsFollowKeystrokeOrder(t *testing.T) {
	m, _, store := newModel(t)

	m, cmd := press(m, "/")
	runCmd(cmd)
	m, first := press(m, "b")
	m, second := press(m, "x")

	// the later keystroke's fetch completes first
	runCmd(second)
	runCmd(first)
	m = settle(m)

	if m.snap.Filter.Search != "bx" {
		t.Fatalf("store filter = %q, want bx", m.snap.Filter.Search)
	}
	if len(m.snap.Tasks) != 0 {
		t.Fatalf("tasks = %+v, want none for bx", m.snap.Tasks)
	}
	if got := store.Request(client.OpFetchTasks).Phase; got != client.Succeeded {
		t.Fatalf("fetch phase = %v", got)
	}
}

func TestStatusCycleAndDelete(t *testing.T) {
	m, api, _ := newModel(t)

	m, cmd := press(m, "s")
	runCmd(cmd)
	m = settle(m)
	if got := m.snap.Tasks[0].Status; got != domain.StatusInProgress {
		t.Fatalf("status = %q, want In Progress", got)
	}
	if m.snap.Stats.InProgress != 1 {
		t.Fatalf("stats not refreshed: %+v", m.snap.Stats)
	}
	if len(api.updates) != 1 || api.updates[0].Title != nil {
		t.Fatalf("expected a status-only patch, got %+v", api.updates)
	}
	if !strings.Contains(m.View(), "Task updated") {
		t.Fatalf("missing success notice:\n%s", m.View())
	}

	m, cmd = press(m, "j")
	if cmd != nil || m.cursor != 1 {
		t.Fatalf("cursor = %d", m.cursor)
	}
	m, cmd = press(m, "d")
	runCmd(cmd)
	m = settle(m)
	if len(m.snap.Tasks) != 1 || m.cursor != 0 {
		t.Fatalf("tasks=%d cursor=%d", len(m.snap.Tasks), m.cursor)
	}
	if m.snap.Stats.Total != 1 {
		t.Fatalf("stats total = %d", m.snap.Stats.Total)
	}
}

func TestCreateAndEdit(t *testing.T) {
	m, _, _ := newModel(t)

	m, _ = press(m, "n")
	for _, r := range "Walk dog" {
		m, _ = press(m, string(r))
	}
	m, cmd := press(m, "enter")
	runCmd(cmd)
	m = settle(m)
	if m.snap.Tasks[0].Title != "Walk dog" {
		t.Fatalf("created task not prepended: %+v", m.snap.Tasks[0])
	}

	m, _ = press(m, "e")
	if m.mode != modeEdit || m.input.Value() != "Walk dog" {
		t.Fatalf("edit mode=%v value=%q", m.mode, m.input.Value())
	}
	m, _ = press(m, "!")
	m, cmd = press(m, "enter")
	runCmd(cmd)
	m = settle(m)
	if m.snap.Tasks[0].Title != "Walk dog!" {
		t.Fatalf("title = %q", m.snap.Tasks[0].Title)
	}
}

func TestFailureNoticeClearsOnReset(t *testing.T) {
	m, _, store := newModel(t)

	runCmd(m.run(func(ctx context.Context) error { return store.DeleteTask(ctx, 999) }))
	m = settle(m)
	if !strings.Contains(m.View(), "Task not found") {
		t.Fatalf("missing failure notice:\n%s", m.View())
	}
	if !m.clearing {
		t.Fatal("expected a clear to be scheduled")
	}

	next, _ := m.Update(clearNoticeMsg{})
	m = settle(next.(Model))
	if strings.Contains(m.View(), "Task not found") {
		t.Fatal("notice still shown after reset")
	}
	if store.Request(client.OpDeleteTask).Phase != client.Idle {
		t.Fatal("request state not reset")
	}
}

func TestEventRefreshesList(t *testing.T) {
	m, _, _ := newModel(t)
	m.events = make(chan domain.TaskEvent)

	next, cmd := m.Update(eventMsg{ev: domain.TaskEvent{Type: domain.EventTaskDeleted, TaskID: 2}})
	runCmd(cmd)
	m = settle(next.(Model))
	if len(m.snap.Tasks) != 1 || m.snap.Tasks[0].ID != 1 {
		t.Fatalf("tasks = %+v", m.snap.Tasks)
	}
}

func TestCycles(t *testing.T) {
	if nextStatus(domain.StatusCompleted) != domain.StatusTodo {
		t.Error("Completed should wrap to Todo")
	}
	if nextStatus(domain.StatusTodo) != domain.StatusInProgress {
		t.Error("Todo should advance to In Progress")
	}
	if nextFilter("") != domain.StatusTodo || nextFilter(domain.StatusCompleted) != "" {
		t.Error("filter cycle broken")
	}
	if bar(0, 0) != strings.Repeat("░", barWidth) {
		t.Error("empty bar")
	}
	if bar(2, 2) != strings.Repeat("█", barWidth) {
		t.Error("full bar")
	}
}
