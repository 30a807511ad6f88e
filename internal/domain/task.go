package domain

import "time"

// Status is the lifecycle tag of a task. Any status may change to any other.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the valid values in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status Status
	Search string
}

// TaskPatch carries the fields of a partial update. A nil field is left unchanged;
// a non-nil empty title is a value, not an omission.
type TaskPatch struct {
	Title  *string
	Status *Status
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Status == nil
}

// Stats are per-status counts over one owner's tasks.
type Stats struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
}

// Add counts one task with the given status.
func (s *Stats) Add(status Status) {
	s.Total++
	switch status {
	case StatusTodo:
		s.Todo++
	case StatusInProgress:
		s.InProgress++
	case StatusCompleted:
		s.Completed++
	}
}
