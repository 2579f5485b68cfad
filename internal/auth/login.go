package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

var ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===== Login =====
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}

	u, err := h.accounts.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Respond(c, ErrInvalidCredentials)
		}
		return apperr.Respond(c, err)
	}
	if !CheckPassword(u.Password, req.Password) {
		return apperr.Respond(c, ErrInvalidCredentials)
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: u})
}
