package catalog

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// GET /tags
func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.store.ListTags(c.Request().Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	if tags == nil {
		tags = []Tag{}
	}
	return c.JSON(http.StatusOK, tags)
}

// GET /tags/:id
func (h *Handler) GetTag(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrTagNotFound)
	}
	t, err := h.store.GetTag(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// GET /activities?name=<prefix>&slug=a&slug=b
func (h *Handler) ListActivities(c echo.Context) error {
	f := ActivityFilter{NamePrefix: strings.TrimSpace(c.QueryParam("name"))}
	for _, raw := range c.QueryParams()["slug"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Slugs = append(f.Slugs, s)
			}
		}
	}

	activities, err := h.store.ListActivities(c.Request().Context(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if activities == nil {
		activities = []Activity{}
	}
	return c.JSON(http.StatusOK, activities)
}

// GET /activities/:id
func (h *Handler) GetActivity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, ErrActivityNotFound)
	}
	a, err := h.store.GetActivity(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"max=200"`
	Color string `json:"color" validate:"required"`
}

type CreateActivityRequest struct {
	Name        string `json:"name" validate:"required,max=256"`
	Slug        string `json:"slug" validate:"max=200"`
	Description string `json:"description" validate:"required"`
}

// NewTag validates req and builds the tag to insert. A missing slug is
// derived from the name.
func NewTag(req CreateTagRequest) (*Tag, error) {
	s, err := resolveSlug(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	color, err := NormalizeColor(req.Color)
	if err != nil {
		return nil, err
	}
	name, _ := ColorName(color)
	return &Tag{Name: strings.TrimSpace(req.Name), Slug: s, Color: color, ColorName: name}, nil
}

func NewActivity(req CreateActivityRequest) (*Activity, error) {
	s, err := resolveSlug(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	return &Activity{Name: strings.TrimSpace(req.Name), Slug: s, Description: req.Description}, nil
}

func resolveSlug(name, given string) (string, error) {
	if given == "" {
		given = slug.Make(name)
	}
	if !slug.IsSlug(given) {
		return "", apperr.Validation("slug: must contain only lowercase letters, digits and hyphens")
	}
	return given, nil
}

// POST /admin/tags
func (h *Handler) CreateTag(c echo.Context) error {
	if err := access.Check(middleware.CallerFrom(c), access.ResourceCatalog, access.ActionCreate, uuid.Nil); err != nil {
		return apperr.Respond(c, err)
	}
	req := new(CreateTagRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	t, err := NewTag(*req)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.store.CreateTag(c.Request().Context(), t); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// POST /admin/activities
func (h *Handler) CreateActivity(c echo.Context) error {
	if err := access.Check(middleware.CallerFrom(c), access.ResourceCatalog, access.ActionCreate, uuid.Nil); err != nil {
		return apperr.Respond(c, err)
	}
	req := new(CreateActivityRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	a, err := NewActivity(*req)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.store.CreateActivity(c.Request().Context(), a); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}
