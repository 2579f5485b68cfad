package user

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/phone"
	"github.com/sudo-init-do/artmaster/internal/relation"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type Handler struct {
	store         Store
	subscriptions relation.Linker
	phoneRegion   string
}

func NewHandler(store Store, subscriptions relation.Linker, phoneRegion string) *Handler {
	return &Handler{store: store, subscriptions: subscriptions, phoneRegion: phoneRegion}
}

// GET /users/:id
func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrNotFound)
	}
	caller := middleware.CallerFrom(c)

	p, err := h.store.Profile(c.Request().Context(), id, caller.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	Username  *string `json:"username" validate:"omitnil,min=1,max=150"`
	FirstName *string `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string `json:"last_name" validate:"omitnil,max=150"`
	Phone     *string `json:"phone"`
	Photo     *string `json:"photo" validate:"omitnil,max=2048"`
}

// PATCH /users/me
func (h *Handler) UpdateMe(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceProfile, access.ActionUpdate, caller.ID); err != nil {
		return apperr.Respond(c, err)
	}

	req := new(UpdateProfileRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}

	upd := ProfileUpdate{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Photo:     req.Photo,
	}
	if req.Phone != nil {
		normalized := ""
		if *req.Phone != "" {
			var err error
			if normalized, err = phone.Normalize(*req.Phone, h.phoneRegion); err != nil {
				return apperr.Respond(c, err)
			}
		}
		upd.Phone = &normalized
	}

	u, err := h.store.Update(c.Request().Context(), caller.ID, upd)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
