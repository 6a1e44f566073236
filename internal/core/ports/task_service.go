package ports

import (
	"context"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// CreateTaskInput carries the data needed to create a task. The owner comes
// from the authenticated identity, never from the client payload.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
}

// UpdateTaskInput is a partial update: nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
}

// ListTasksInput selects and orders the caller's tasks.
type ListTasksInput struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string // created_at | priority | due_date | title
	SortOrder string // asc | desc
}

// TaskStats summarises the caller's tasks.
type TaskStats struct {
	Total          int `json:"total"`
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	CompletionRate int `json:"completion_rate"`
	HighPriority   int `json:"high_priority"`
	MediumPriority int `json:"medium_priority"`
	LowPriority    int `json:"low_priority"`
}

// TaskService exposes task operations scoped to a single owner. Every method
// takes the resolved identity's id; no operation is exempt from that scoping.
type TaskService interface {
	Create(ctx context.Context, ownerID int64, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id int64, in UpdateTaskInput) (*domain.Task, error)
	UpdateStatus(ctx context.Context, ownerID, id int64, status string) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
	List(ctx context.Context, ownerID int64, in ListTasksInput) ([]domain.Task, error)
	Stats(ctx context.Context, ownerID int64) (*TaskStats, error)
}
