package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
)

// AdminGuard ensures only admin users can access admin routes
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := CallerFrom(c)
		if err := access.Check(caller, access.ResourceAdmin, access.ActionRead, caller.ID); err != nil {
			if caller.Authenticated() {
				return apperr.Respond(c, apperr.Forbidden("admin access only"))
			}
			return apperr.Respond(c, err)
		}
		return next(c)
	}
}
