package ports

import (
	"context"
	"time"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// UserRepository defines the persistence interface for identities. The store
// must enforce username and email uniqueness at the storage layer; Create
// returns domain.ErrUserExists on a uniqueness violation so an application
// pre-check alone never decides the race.
type UserRepository interface {
	Create(ctx context.Context, user *domain.Identity) (*domain.Identity, error)

	// FindByIdentifier matches identifier against username OR email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Identity, error)

	// FindByUsernameOrEmail is the combined registration pre-check: it
	// returns the first identity whose username equals username or whose
	// email equals email.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.Identity, error)

	FindByID(ctx context.Context, id int64) (*domain.Identity, error)

	// All returns every identity. Used by the password migrator only.
	All(ctx context.Context) ([]domain.Identity, error)

	UpdatePasswordHash(ctx context.Context, id int64, digest string, updatedAt time.Time) error
}
