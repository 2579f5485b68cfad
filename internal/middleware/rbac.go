package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
)

// RequireRoles ensures the requester's role is one of the allowed roles.
// Usage: route(..., RequireRoles(access.RoleMaster, access.RoleAdmin))
func RequireRoles(roles ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			if !caller.Authenticated() {
				return apperr.Respond(c, apperr.ErrAuthRequired)
			}
			if !slices.Contains(roles, caller.Role) {
				return apperr.Respond(c, apperr.Forbidden("access denied"))
			}
			return next(c)
		}
	}
}
