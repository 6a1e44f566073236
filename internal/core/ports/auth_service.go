package ports

import (
	"context"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// AuthService is the account manager: registration, authentication, and
// resolution of a bearer credential to an identity.
//
// The bearer credential is the raw username or email string, not a signed
// token. That is the contract inherited from the original system and it is a
// known weakness: anyone who knows a username can present it. Replacing it
// with an expiring signed token is a product decision, not a silent fix.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.Identity, error)
	Authenticate(ctx context.Context, identifier, password string) (*domain.Identity, error)
	ResolveCredential(ctx context.Context, credential string) (*domain.Identity, error)
}
