package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

var (
	ErrInvalidRole = apperr.Validation("role: must be one of client, master, admin")
	ErrOwnRole     = apperr.Validation("cannot change your own role")
)

// GET /admin/users?role=master
func (h *Handler) ListUsers(c echo.Context) error {
	var role access.Role
	if raw := c.QueryParam("role"); raw != "" {
		r, ok := access.ParseRole(raw)
		if !ok {
			return apperr.Respond(c, ErrInvalidRole)
		}
		role = r
	}

	p := pagination.FromRequest(c)
	users, total, err := h.store.ListUsers(c.Request().Context(), role, p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(users, total, p))
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// POST /admin/users/:id/role
func (h *Handler) SetUserRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrUserNotFound)
	}
	req := new(SetRoleRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	role, ok := access.ParseRole(req.Role)
	if !ok {
		return apperr.Respond(c, ErrInvalidRole)
	}
	if middleware.CallerFrom(c).ID == id {
		return apperr.Respond(c, ErrOwnRole)
	}

	if err := h.store.SetRole(c.Request().Context(), id, role); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "user_id": id, "role": role})
}
