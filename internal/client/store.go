package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"task_manager/internal/domain"

	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a
// newer fetch of the same kind was issued, or the session ended.
var ErrSuperseded = errors.New("superseded by a newer request")

// API is the part of *Client the Store drives.
type API interface {
	Register(ctx context.Context, email, password, username string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context) (*domain.PublicUser, error)
	Logout(ctx context.Context) error
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error)
	CreateTask(ctx context.Context, title string, status domain.Status) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, p domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*domain.Stats, error)
}

// Phase is the lifecycle of one request kind.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// RequestState is the tagged state of one operation. Message is set only when Failed.
type RequestState struct {
	Phase   Phase
	Message string
}

// Op names a kind of request tracked by the Store.
type Op string

const (
	OpRegister   Op = "register"
	OpLogin      Op = "login"
	OpLoadUser   Op = "me"
	OpFetchTasks Op = "fetchTasks"
	OpFetchStats Op = "fetchStats"
	OpCreateTask Op = "createTask"
	OpUpdateTask Op = "updateTask"
	OpDeleteTask Op = "deleteTask"
)

// Snapshot is a copy of the store's state, safe to read without locking.
type Snapshot struct {
	User     *domain.PublicUser
	Tasks    []*domain.Task
	Stats    domain.Stats
	Filter   domain.TaskFilter
	Requests map[Op]RequestState
}

// Request returns the state of op; absent ops are Idle.
func (s Snapshot) Request(op Op) RequestState {
	return s.Requests[op]
}

// Store holds one session's tasks, stats, user and request states.
//
// Every call moves its Op to Pending, then to Succeeded (merging the result)
// or Failed (keeping the server message). Mutations merge into the local list
// and never refetch it. Task and stats fetches are sequenced: issuing a new
// one cancels the previous and a response for anything but the latest request
// is discarded.
type Store struct {
	api API

	mu       sync.Mutex
	user     *domain.PublicUser
	tasks    []*domain.Task
	stats    domain.Stats
	filter   domain.TaskFilter
	requests map[Op]RequestState
	seq      map[Op]uint64
	cancel   map[Op]context.CancelFunc
	// epoch changes on Logout; results from an older epoch are dropped.
	epoch uint64

	changed chan struct{}
}

func NewStore(api API) *Store {
	return &Store{
		api:      api,
		tasks:    make([]*domain.Task, 0),
		requests: make(map[Op]RequestState),
		seq:      make(map[Op]uint64),
		cancel:   make(map[Op]context.CancelFunc),
		changed:  make(chan struct{}, 1),
	}
}

// Changes delivers a signal after every state change. Signals coalesce.
func (s *Store) Changes() <-chan struct{} {
	return s.changed
}

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Stats:    s.stats,
		Filter:   s.filter,
		Tasks:    make([]*domain.Task, len(s.tasks)),
		Requests: make(map[Op]RequestState, len(s.requests)),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	for i, t := range s.tasks {
		cp := *t
		snap.Tasks[i] = &cp
	}
	for op, st := range s.requests {
		snap.Requests[op] = st
	}
	return snap
}

func (s *Store) Request(op Op) RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[op]
}

// Reset returns every request state to Idle. Data is kept.
func (s *Store) Reset() {
	s.mu.Lock()
	s.requests = make(map[Op]RequestState)
	s.mu.Unlock()
	s.notify()
}

type ticket struct {
	op    Op
	seq   uint64
	epoch uint64
}

// begin marks op Pending. When cancelPrev is set the previous request of the
// same op is cancelled and ctx is wrapped so the next begin can cancel this one.
func (s *Store) begin(ctx context.Context, op Op, cancelPrev bool) (context.Context, ticket) {
	return s.beginWith(ctx, op, cancelPrev, nil)
}

// beginWith is begin, also running locked inside the critical section that
// assigns the sequence number.
func (s *Store) beginWith(ctx context.Context, op Op, cancelPrev bool, locked func()) (context.Context, ticket) {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()

	if locked != nil {
		locked()
	}
	s.seq[op]++
	tk := ticket{op: op, seq: s.seq[op], epoch: s.epoch}
	if cancelPrev {
		if prev := s.cancel[op]; prev != nil {
			prev()
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		s.cancel[op] = cancel
	}
	s.requests[op] = RequestState{Phase: Pending}
	return ctx, tk
}

// finish settles tk. Stale results (older seq when latestOnly, or any result
// from before a logout) are dropped and finish reports false. apply runs under
// the lock only on success.
func (s *Store) finish(tk ticket, err error, latestOnly bool, apply func()) bool {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()

	if tk.epoch != s.epoch {
		return false
	}
	latest := tk.seq == s.seq[tk.op]
	if latestOnly && !latest {
		return false
	}
	if latest && latestOnly {
		if cancel := s.cancel[tk.op]; cancel != nil {
			cancel()
			delete(s.cancel, tk.op)
		}
	}

	if err == nil && apply != nil {
		apply()
	}
	if !latest {
		return true
	}
	if err != nil {
		s.requests[tk.op] = RequestState{Phase: Failed, Message: errorMessage(err)}
	} else {
		s.requests[tk.op] = RequestState{Phase: Succeeded}
	}
	return true
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func (s *Store) Register(ctx context.Context, email, password, username string) error {
	ctx, tk := s.begin(ctx, OpRegister, false)
	res, err := s.api.Register(ctx, email, password, username)
	s.finish(tk, err, false, func() {
		u := res.User
		s.user = &u
	})
	return err
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	ctx, tk := s.begin(ctx, OpLogin, false)
	res, err := s.api.Login(ctx, email, password)
	s.finish(tk, err, false, func() {
		u := res.User
		s.user = &u
	})
	return err
}

// LoadUser fetches the profile for an existing token.
func (s *Store) LoadUser(ctx context.Context) error {
	ctx, tk := s.begin(ctx, OpLoadUser, true)
	u, err := s.api.Me(ctx)
	if !s.finish(tk, err, true, func() { s.user = u }) {
		return ErrSuperseded
	}
	return err
}

// FetchTasks replaces the list with the server's view under f. f becomes the
// store's current filter immediately.
func (s *Store) FetchTasks(ctx context.Context, f domain.TaskFilter) error {
	return s.StartFetchTasks(ctx, f)()
}

// StartFetchTasks orders the fetch against other fetches now and returns the
// call that performs it. Requests are ordered by StartFetchTasks, not by when
// the returned func runs.
func (s *Store) StartFetchTasks(ctx context.Context, f domain.TaskFilter) func() error {
	ctx, tk := s.beginWith(ctx, OpFetchTasks, true, func() { s.filter = f })
	return func() error {
		tasks, err := s.api.ListTasks(ctx, f)
		if !s.finish(tk, err, true, func() { s.tasks = tasks }) {
			return ErrSuperseded
		}
		return err
	}
}

func (s *Store) FetchStats(ctx context.Context) error {
	ctx, tk := s.begin(ctx, OpFetchStats, true)
	stats, err := s.api.Stats(ctx)
	if !s.finish(tk, err, true, func() { s.stats = *stats }) {
		return ErrSuperseded
	}
	return err
}

// Refresh fetches tasks under f and stats concurrently. One failing does not
// cancel the other.
func (s *Store) Refresh(ctx context.Context, f domain.TaskFilter) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchTasks(ctx, f) })
	g.Go(func() error { return s.FetchStats(ctx) })
	return g.Wait()
}

// CreateTask prepends the created task.
func (s *Store) CreateTask(ctx context.Context, title string, status domain.Status) (*domain.Task, error) {
	ctx, tk := s.begin(ctx, OpCreateTask, false)
	t, err := s.api.CreateTask(ctx, title, status)
	s.finish(tk, err, false, func() {
		s.tasks = append([]*domain.Task{t}, removeTask(s.tasks, t.ID)...)
	})
	return t, err
}

// UpdateTask replaces the matching task by id.
func (s *Store) UpdateTask(ctx context.Context, id int64, p domain.TaskPatch) (*domain.Task, error) {
	ctx, tk := s.begin(ctx, OpUpdateTask, false)
	t, err := s.api.UpdateTask(ctx, id, p)
	s.finish(tk, err, false, func() {
		for i := range s.tasks {
			if s.tasks[i].ID == t.ID {
				s.tasks[i] = t
			}
		}
	})
	return t, err
}

// DeleteTask removes the matching task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	ctx, tk := s.begin(ctx, OpDeleteTask, false)
	err := s.api.DeleteTask(ctx, id)
	s.finish(tk, err, false, func() {
		s.tasks = removeTask(s.tasks, id)
	})
	return err
}

// ApplyEvent merges a live event. Created tasks outside the current filter are ignored.
func (s *Store) ApplyEvent(ev domain.TaskEvent) {
	s.mu.Lock()
	switch ev.Type {
	case domain.EventTaskCreated:
		if ev.Task != nil && matches(s.filter, ev.Task) && indexOf(s.tasks, ev.Task.ID) < 0 {
			s.tasks = append([]*domain.Task{ev.Task}, s.tasks...)
		}
	case domain.EventTaskUpdated:
		if ev.Task != nil {
			if i := indexOf(s.tasks, ev.Task.ID); i >= 0 {
				s.tasks[i] = ev.Task
			}
		}
	case domain.EventTaskDeleted:
		s.tasks = removeTask(s.tasks, ev.TaskID)
	}
	s.mu.Unlock()
	s.notify()
}

// Logout ends the session: in-flight requests are cancelled, their results
// discarded and all state cleared. The server call's error is returned but
// does not keep the session alive.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)

	s.mu.Lock()
	for op, cancel := range s.cancel {
		cancel()
		delete(s.cancel, op)
	}
	s.epoch++
	s.user = nil
	s.tasks = make([]*domain.Task, 0)
	s.stats = domain.Stats{}
	s.filter = domain.TaskFilter{}
	s.requests = make(map[Op]RequestState)
	s.mu.Unlock()
	s.notify()
	return err
}

func matches(f domain.TaskFilter, t *domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func indexOf(tasks []*domain.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func removeTask(tasks []*domain.Task, id int64) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
