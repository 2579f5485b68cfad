package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
)

const callerKey = "caller"

// TokenParser extracts the user id from a bearer token.
type TokenParser interface {
	ParseUserID(token string) (uuid.UUID, error)
}

// RoleLoader returns the current role of a stored user.
type RoleLoader func(ctx context.Context, id uuid.UUID) (access.Role, error)

var errInvalidToken = apperr.Unauthorized("invalid or expired token")

// Authenticate resolves the caller for every request. Requests without an
// Authorization header continue as anonymous; a bad token or a token for a
// user that no longer exists is rejected with 401. The role always comes from
// the store so promotions apply immediately.
func Authenticate(tokens TokenParser, loadRole RoleLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				SetCaller(c, access.Caller{})
				return next(c)
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) || len(header) == len(prefix) {
				return apperr.Respond(c, apperr.Unauthorized("invalid Authorization format"))
			}

			userID, err := tokens.ParseUserID(header[len(prefix):])
			if err != nil {
				return apperr.Respond(c, errInvalidToken)
			}

			role, err := loadRole(c.Request().Context(), userID)
			if err != nil {
				if apperr.IsKind(err, apperr.KindNotFound) {
					return apperr.Respond(c, errInvalidToken)
				}
				return apperr.Respond(c, err)
			}

			SetCaller(c, access.Caller{ID: userID, Role: role})
			return next(c)
		}
	}
}

// SetCaller stores the resolved caller on the request context.
func SetCaller(c echo.Context, caller access.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom returns the caller resolved by Authenticate, or an anonymous
// caller when the middleware did not run.
func CallerFrom(c echo.Context) access.Caller {
	caller, _ := c.Get(callerKey).(access.Caller)
	return caller
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CallerFrom(c).Authenticated() {
			return apperr.Respond(c, apperr.ErrAuthRequired)
		}
		return next(c)
	}
}
