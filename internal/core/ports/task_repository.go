package ports

import (
	"context"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// TaskFilter narrows a task listing. OwnerID is always set by the service;
// the remaining fields are optional.
type TaskFilter struct {
	OwnerID  int64
	Status   string
	Priority string
	// Search matches a case-insensitive substring of title or description.
	Search string
}

// TaskRepository defines the persistence interface for tasks. Every lookup
// and mutation is keyed by (ownerID, id): a task that exists but belongs to a
// different owner behaves exactly like a task that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, ownerID, id int64) error
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
}
