package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_manager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, status, created_at, updated_at`

// TaskRepository scopes every statement to the owning user in the same predicate
// as the task id, so a foreign task is indistinguishable from a missing one.
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the owner's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, ownerID int64, f domain.TaskFilter) ([]*domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	args := []any{ownerID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		fmt.Fprintf(&sb, ` AND strpos(lower(title), lower($%d)) > 0`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err, "get task")
	}
	return t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, status) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Title, string(t.Status),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update applies the supplied fields in one statement and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id int64, p domain.TaskPatch) (*domain.Task, error) {
	if p.Empty() {
		return r.GetByID(ctx, ownerID, id)
	}

	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}

	row := r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET title = COALESCE($3, title),
		     status = COALESCE($4, status),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		id, ownerID, p.Title, status,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err, "update task")
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats aggregates over the owner's full task set on every call.
func (r *TaskRepository) Stats(ctx context.Context, ownerID int64) (*domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'Todo'),
		        COUNT(*) FILTER (WHERE status = 'In Progress'),
		        COUNT(*) FILTER (WHERE status = 'Completed')
		 FROM tasks WHERE user_id = $1`,
		ownerID,
	).Scan(&s.Total, &s.Todo, &s.InProgress, &s.Completed)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	return &s, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var status string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	return &t, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
