package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

// RoleSetter changes the role of the user with the given email.
type RoleSetter interface {
	SetRoleByEmail(ctx context.Context, email string, role access.Role) error
}

type BootstrapAdminRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"secret" validate:"required"`
}

// BootstrapAdmin promotes a user to admin when the shared bootstrap secret
// matches. An empty secret disables the endpoint.
func BootstrapAdmin(roles RoleSetter, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if secret == "" {
			return apperr.Respond(c, apperr.Forbidden("bootstrap disabled"))
		}
		req := new(BootstrapAdminRequest)
		if err := validation.Bind(c, req); err != nil {
			return apperr.Respond(c, err)
		}
		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(secret)) != 1 {
			return apperr.Respond(c, apperr.Forbidden("invalid secret"))
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := roles.SetRoleByEmail(c.Request().Context(), email, access.RoleAdmin); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "user promoted to admin", "email": email})
	}
}
