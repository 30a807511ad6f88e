// Package storetest provides in-memory user and task stores with the same
// scoping, filtering, ordering and cascade rules as the SQL repositories.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"task_manager/internal/domain"
)

// Store holds users and tasks behind one lock so user deletion can cascade.
type Store struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	tasks  map[int64]*domain.Task
	nextID int64

	// Err, when set, is returned by every operation.
	Err error
}

func New() *Store {
	return &Store{
		users: make(map[int64]*domain.User),
		tasks: make(map[int64]*domain.Task),
	}
}

func (s *Store) Users() *Users { return &Users{s: s} }
func (s *Store) Tasks() *Tasks { return &Tasks{s: s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.Err != nil {
		return u.s.Err
	}
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	user.ID = u.s.id()
	user.CreatedAt = time.Now().UTC()
	cp := *user
	u.s.users[cp.ID] = &cp
	return nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.Err != nil {
		return nil, u.s.Err
	}
	for _, existing := range u.s.users {
		if existing.Email == email {
			cp := *existing
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (u *Users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.Err != nil {
		return nil, u.s.Err
	}
	existing, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *existing
	return &cp, nil
}

// Delete removes the user and all of the user's tasks.
func (u *Users) Delete(_ context.Context, id int64) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.Err != nil {
		return u.s.Err
	}
	if _, ok := u.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(u.s.users, id)
	for tid, t := range u.s.tasks {
		if t.UserID == id {
			delete(u.s.tasks, tid)
		}
	}
	return nil
}

type Tasks struct{ s *Store }

func (t *Tasks) List(_ context.Context, ownerID int64, f domain.TaskFilter) ([]*domain.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return nil, t.s.Err
	}

	search := strings.ToLower(f.Search)
	res := make([]*domain.Task, 0)
	for _, task := range t.s.tasks {
		if task.UserID != ownerID {
			continue
		}
		if f.Status != "" && task.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(task.Title), search) {
			continue
		}
		cp := *task
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (t *Tasks) GetByID(_ context.Context, ownerID, id int64) (*domain.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return nil, t.s.Err
	}
	task, ok := t.s.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (t *Tasks) Create(_ context.Context, task *domain.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return t.s.Err
	}
	if _, ok := t.s.users[task.UserID]; !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	task.ID = t.s.id()
	task.CreatedAt = now
	task.UpdatedAt = now
	cp := *task
	t.s.tasks[cp.ID] = &cp
	return nil
}

func (t *Tasks) Update(_ context.Context, ownerID, id int64, p domain.TaskPatch) (*domain.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return nil, t.s.Err
	}
	task, ok := t.s.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if !p.Empty() {
		task.UpdatedAt = time.Now().UTC()
	}
	cp := *task
	return &cp, nil
}

func (t *Tasks) Delete(_ context.Context, ownerID, id int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return t.s.Err
	}
	task, ok := t.s.tasks[id]
	if !ok || task.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(t.s.tasks, id)
	return nil
}

func (t *Tasks) Stats(_ context.Context, ownerID int64) (*domain.Stats, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.Err != nil {
		return nil, t.s.Err
	}
	var s domain.Stats
	for _, task := range t.s.tasks {
		if task.UserID == ownerID {
			s.Add(task.Status)
		}
	}
	return &s, nil
}

// Recorder is a Notifier that keeps every published event.
type Recorder struct {
	mu     sync.Mutex
	events map[int64][]domain.TaskEvent
}

func NewRecorder() *Recorder {
	return &Recorder{events: make(map[int64][]domain.TaskEvent)}
}

func (r *Recorder) Publish(userID int64, ev domain.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], ev)
}

func (r *Recorder) Events(userID int64) []domain.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TaskEvent(nil), r.events[userID]...)
}
