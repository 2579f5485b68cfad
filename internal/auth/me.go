package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
)

// Me returns the currently authenticated user's account
func (h *Handler) Me(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if !caller.Authenticated() {
		return apperr.Respond(c, apperr.ErrAuthRequired)
	}

	u, err := h.accounts.GetByID(c.Request().Context(), caller.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
