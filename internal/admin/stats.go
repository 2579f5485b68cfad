package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/pagination"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	counts, err := h.store.Stats(c.Request().Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}

// GET /admin/services
func (h *Handler) ListServices(c echo.Context) error {
	p := pagination.FromRequest(c)
	items, total, err := h.store.ListServices(c.Request().Context(), p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(items, total, p))
}
