package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/task-dashboard-api/internal/api/middleware"
	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

// identityFrom extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a missing identity means the route was
// registered without the middleware, which is a wiring bug surfaced as 401
// rather than a panic further down.
func identityFrom(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.IdentityKey).(*domain.Identity)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated identity")
	}
	return identity, nil
}
