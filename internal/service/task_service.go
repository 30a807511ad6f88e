package service

import (
	"context"
	"strings"

	"task_manager/internal/domain"
)

type CreateTaskInput struct {
	Title  string
	Status *domain.Status
}

// TaskService applies validation and publishes events around a TaskStore.
// Status transitions are unrestricted.
type TaskService struct {
	tasks    TaskStore
	notifier Notifier
}

func NewTaskService(tasks TaskStore, notifier Notifier) *TaskService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TaskService{tasks: tasks, notifier: notifier}
}

// List returns the owner's tasks, newest first. An unknown status filter matches nothing.
func (s *TaskService) List(ctx context.Context, ownerID int64, f domain.TaskFilter) ([]*domain.Task, error) {
	return s.tasks.List(ctx, ownerID, f)
}

func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, ownerID, id)
}

// Create defaults the status to Todo when it is omitted or empty.
func (s *TaskService) Create(ctx context.Context, ownerID int64, in CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.NewValidationError("title", "Title is required")
	}

	status := domain.StatusTodo
	if in.Status != nil && *in.Status != "" {
		if err := checkStatus(*in.Status); err != nil {
			return nil, err
		}
		status = *in.Status
	}

	t := &domain.Task{
		UserID: ownerID,
		Title:  in.Title,
		Status: status,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	TaskMutations.WithLabelValues("create").Inc()
	s.notifier.Publish(ownerID, domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: t.ID, Task: t})
	return t, nil
}

// Update applies only the supplied fields. The status is validated before any write.
func (s *TaskService) Update(ctx context.Context, ownerID, id int64, p domain.TaskPatch) (*domain.Task, error) {
	if p.Status != nil {
		if err := checkStatus(*p.Status); err != nil {
			return nil, err
		}
	}

	t, err := s.tasks.Update(ctx, ownerID, id, p)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return t, nil
	}

	TaskMutations.WithLabelValues("update").Inc()
	s.notifier.Publish(ownerID, domain.TaskEvent{Type: domain.EventTaskUpdated, TaskID: t.ID, Task: t})
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	TaskMutations.WithLabelValues("delete").Inc()
	s.notifier.Publish(ownerID, domain.TaskEvent{Type: domain.EventTaskDeleted, TaskID: id})
	return nil
}

// Stats recomputes the owner's counts from the full task set.
func (s *TaskService) Stats(ctx context.Context, ownerID int64) (*domain.Stats, error) {
	return s.tasks.Stats(ctx, ownerID)
}
