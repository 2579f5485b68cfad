package user

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/relation"
)

var (
	ErrSelfSubscribe  = apperr.Validation("subscribing to yourself is forbidden")
	ErrMasterNotFound = apperr.NotFound("master not found")
)

// POST /users/:id/subscribe
func (h *Handler) Subscribe(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceSubscription, access.ActionCreate, caller.ID); err != nil {
		return apperr.Respond(c, err)
	}
	masterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrMasterNotFound)
	}
	if masterID == caller.ID {
		return apperr.Respond(c, ErrSelfSubscribe)
	}

	ctx := c.Request().Context()
	target, err := h.store.GetByID(ctx, masterID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Respond(c, ErrMasterNotFound)
		}
		return apperr.Respond(c, err)
	}
	if target.Role != access.RoleMaster {
		return apperr.Respond(c, ErrMasterNotFound)
	}

	if err := relation.Add(ctx, h.subscriptions, caller.ID, masterID); err != nil {
		if errors.Is(err, relation.ErrMissingTarget) {
			return apperr.Respond(c, ErrMasterNotFound)
		}
		return apperr.Respond(c, err)
	}

	p, err := h.store.Profile(ctx, masterID, caller.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// DELETE /users/:id/subscribe
func (h *Handler) Unsubscribe(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceSubscription, access.ActionDelete, caller.ID); err != nil {
		return apperr.Respond(c, err)
	}
	masterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrMasterNotFound)
	}
	if masterID == caller.ID {
		return apperr.Respond(c, ErrSelfSubscribe)
	}

	if err := relation.Remove(c.Request().Context(), h.subscriptions, caller.ID, masterID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /users/subscriptions
func (h *Handler) ListSubscriptions(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceSubscription, access.ActionRead, caller.ID); err != nil {
		return apperr.Respond(c, err)
	}

	p := pagination.FromRequest(c)
	masters, total, err := h.store.ListSubscriptions(c.Request().Context(), caller.ID, p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(masters, total, p))
}
