package service

import (
	"context"

	"task_manager/internal/domain"
)

// UserStore is the credential store. Create must report a taken email as
// domain.ErrDuplicateEmail; lookups report a missing user as domain.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TaskStore persists tasks. Every method is scoped to ownerID; a task owned by
// someone else is reported as domain.ErrNotFound.
type TaskStore interface {
	List(ctx context.Context, ownerID int64, f domain.TaskFilter) ([]*domain.Task, error)
	GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, ownerID, id int64, p domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Stats(ctx context.Context, ownerID int64) (*domain.Stats, error)
}

// Notifier receives task events after a mutation has been persisted.
type Notifier interface {
	Publish(userID int64, ev domain.TaskEvent)
}

type noopNotifier struct{}

func (noopNotifier) Publish(int64, domain.TaskEvent) {}
