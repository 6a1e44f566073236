package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/task-dashboard-api/internal/api/metrics"
	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// IdentityKey is the echo context key under which Auth stores the resolved
// identity.
const IdentityKey = "identity"

// CredentialResolver turns an inbound bearer credential into an identity.
// Satisfied by the account manager's ResolveCredential.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, credential string) (*domain.Identity, error)
}

// Auth extracts the bearer credential from the Authorization header,
// resolves it to an identity, and injects the identity into the request
// context. The credential is the raw username or email string; there is no
// signature or expiry to check.
func Auth(resolver CredentialResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			identity, err := resolver.ResolveCredential(c.Request().Context(), parts[1])
			if err != nil {
				metrics.CredentialResolutionsTotal.WithLabelValues("failure").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
			}
			metrics.CredentialResolutionsTotal.WithLabelValues("success").Inc()

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}
