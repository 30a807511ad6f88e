package service

import (
	"context"
	"errors"
	"testing"

	"task_manager/internal/domain"
	"task_manager/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	store  *storetest.Store
	events *storetest.Recorder
	svc    *TaskService
	alice  int64
	bob    int64
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	ctx := context.Background()
	store := storetest.New()
	events := storetest.NewRecorder()

	alice := &domain.User{Email: "alice@x.com", PasswordHash: "h", Username: "alice"}
	bob := &domain.User{Email: "bob@x.com", PasswordHash: "h", Username: "bob"}
	require.NoError(t, store.Users().Create(ctx, alice))
	require.NoError(t, store.Users().Create(ctx, bob))

	return &taskFixture{
		store:  store,
		events: events,
		svc:    NewTaskService(store.Tasks(), events),
		alice:  alice.ID,
		bob:    bob.ID,
	}
}

func statusPtr(s domain.Status) *domain.Status { return &s }
func strPtr(s string) *string                 { return &s }

func TestTaskService_CreateDefaultsToTodo(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, created.Status)

	got, err := f.svc.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, domain.StatusTodo, got.Status)
	assert.Equal(t, f.alice, got.UserID)

	emptyStatus, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Other", Status: statusPtr("")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, emptyStatus.Status)
}

func TestTaskService_CreateWithEachStatus(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	for _, st := range domain.Statuses {
		created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "t " + string(st), Status: statusPtr(st)})
		require.NoError(t, err)

		got, err := f.svc.Get(ctx, f.alice, created.ID)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
		assert.Equal(t, "t "+string(st), got.Title)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	cases := []CreateTaskInput{
		{Title: ""},
		{Title: "   "},
		{Title: "ok", Status: statusPtr("Done")},
		{Title: "ok", Status: statusPtr("todo")},
	}
	for _, in := range cases {
		_, err := f.svc.Create(ctx, f.alice, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %+v", in)
	}

	tasks, err := f.svc.List(ctx, f.alice, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "failed creates must persist nothing")
	assert.Empty(t, f.events.Events(f.alice))
}

func TestTaskService_PartialUpdate(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Original", Status: statusPtr(domain.StatusInProgress)})
	require.NoError(t, err)

	same, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Original", same.Title)
	assert.Equal(t, domain.StatusInProgress, same.Status)

	onlyStatus, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Status: statusPtr(domain.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, "Original", onlyStatus.Title)
	assert.Equal(t, domain.StatusCompleted, onlyStatus.Status)

	onlyTitle, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", onlyTitle.Title)
	assert.Equal(t, domain.StatusCompleted, onlyTitle.Status)

	emptyTitle, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Title: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "", emptyTitle.Title)

	// Completed -> Todo is allowed
	back, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Status: statusPtr(domain.StatusTodo)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, back.Status)
}

func TestTaskService_UpdateInvalidStatusChangesNothing(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Keep"})
	require.NoError(t, err)

	for _, bad := range []domain.Status{"", "Done", "COMPLETED"} {
		_, err := f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Title: strPtr("Changed"), Status: statusPtr(bad)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	got, err := f.svc.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)
	assert.Equal(t, domain.StatusTodo, got.Status)
}

func TestTaskService_ForeignTaskIsNotFound(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Private"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.bob, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Update(ctx, f.bob, created.ID, domain.TaskPatch{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.Delete(ctx, f.bob, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(ctx, f.bob, 999999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
}

func TestTaskService_ListFiltersAndOrder(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	titles := []struct {
		title  string
		status domain.Status
	}{
		{"Buy Milk", domain.StatusTodo},
		{"Walk dog", domain.StatusInProgress},
		{"milkshake recipe", domain.StatusCompleted},
		{"Taxes", domain.StatusTodo},
	}
	for _, tt := range titles {
		_, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: tt.title, Status: statusPtr(tt.status)})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.bob, CreateTaskInput{Title: "Bob's milk"})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.alice, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Taxes", all[0].Title, "newest first")
	assert.Equal(t, "Buy Milk", all[3].Title)

	milk, err := f.svc.List(ctx, f.alice, domain.TaskFilter{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, milk, 2)
	assert.Equal(t, "milkshake recipe", milk[0].Title)
	assert.Equal(t, "Buy Milk", milk[1].Title)

	todo, err := f.svc.List(ctx, f.alice, domain.TaskFilter{Status: domain.StatusTodo})
	require.NoError(t, err)
	assert.Len(t, todo, 2)

	both, err := f.svc.List(ctx, f.alice, domain.TaskFilter{Status: domain.StatusTodo, Search: "MILK"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Buy Milk", both[0].Title)

	unknown, err := f.svc.List(ctx, f.alice, domain.TaskFilter{Status: "Archived"})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestTaskService_StatsMatchList(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	statuses := []domain.Status{domain.StatusTodo, domain.StatusTodo, domain.StatusInProgress, domain.StatusCompleted, domain.StatusCompleted, domain.StatusCompleted}
	for i, st := range statuses {
		_, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "task", Status: statusPtr(st)})
		require.NoError(t, err, "create %d", i)
	}
	_, err := f.svc.Create(ctx, f.bob, CreateTaskInput{Title: "bob task"})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 6, Todo: 2, InProgress: 1, Completed: 3}, *stats)
	assert.Equal(t, stats.Total, stats.Todo+stats.InProgress+stats.Completed)

	all, err := f.svc.List(ctx, f.alice, domain.TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, len(all), stats.Total)

	empty, err := f.svc.Stats(ctx, 424242)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, *empty)
}

func TestTaskService_LifecycleScenario(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, created.Status)

	_, err = f.svc.Update(ctx, f.alice, created.ID, domain.TaskPatch{Status: statusPtr(domain.StatusCompleted)})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	require.NoError(t, f.svc.Delete(ctx, f.alice, created.ID))

	_, err = f.svc.Get(ctx, f.alice, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.Delete(ctx, f.alice, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "deleting twice is not a no-op")

	events := f.events.Events(f.alice)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTaskCreated, events[0].Type)
	assert.Equal(t, domain.EventTaskUpdated, events[1].Type)
	assert.Equal(t, domain.EventTaskDeleted, events[2].Type)
	assert.Equal(t, created.ID, events[2].TaskID)
	assert.Empty(t, f.events.Events(f.bob))
}

func TestTaskService_UserDeleteCascades(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	for _, title := range []string{"a1", "a2"} {
		_, err := f.svc.Create(ctx, f.alice, CreateTaskInput{Title: title})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.bob, CreateTaskInput{Title: "b1"})
	require.NoError(t, err)

	require.NoError(t, f.store.Users().Delete(ctx, f.alice))

	aliceStats, err := f.svc.Stats(ctx, f.alice)
	require.NoError(t, err)
	assert.Zero(t, aliceStats.Total)

	bobTasks, err := f.svc.List(ctx, f.bob, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, bobTasks, 1)
}

func TestTaskService_StoreErrorsPropagate(t *testing.T) {
	f := newTaskFixture(t)
	boom := errors.New("connection reset")
	f.store.Err = boom

	_, err := f.svc.List(context.Background(), f.alice, domain.TaskFilter{})
	assert.ErrorIs(t, err, boom)

	_, err = f.svc.Create(context.Background(), f.alice, CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, boom)
}
