package marketplace

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type Handler struct {
	services *Services
	reviews  *Reviews
}

func NewHandler(services *Services, reviews *Reviews) *Handler {
	return &Handler{services: services, reviews: reviews}
}

type ServiceRequest struct {
	Name                  string                  `json:"name" validate:"required,max=256"`
	Description           string                  `json:"description" validate:"required"`
	Activities            []uuid.UUID             `json:"activities"`
	Tags                  []uuid.UUID             `json:"tags"`
	Locations             []catalog.LocationInput `json:"locations" validate:"dive"`
	Image                 string                  `json:"image" validate:"max=2048"`
	AboutMaster           *string                 `json:"about_master"`
	SiteAddress           *string                 `json:"site_address" validate:"omitnil,url"`
	PhoneNumber           string                  `json:"phone_number" validate:"required"`
	SocialNetworkContacts *string                 `json:"social_network_contacts" validate:"omitnil,max=100"`
}

func (r *ServiceRequest) input() ServiceInput {
	return ServiceInput{
		Name:                  strings.TrimSpace(r.Name),
		Description:           r.Description,
		Image:                 r.Image,
		AboutMaster:           r.AboutMaster,
		SiteAddress:           r.SiteAddress,
		PhoneNumber:           r.PhoneNumber,
		SocialNetworkContacts: r.SocialNetworkContacts,
		Activities:            r.Activities,
		Tags:                  r.Tags,
		Locations:             r.Locations,
	}
}

type PatchServiceRequest struct {
	Name                  *string                  `json:"name" validate:"omitnil,min=1,max=256"`
	Description           *string                  `json:"description" validate:"omitnil,min=1"`
	Activities            *[]uuid.UUID             `json:"activities"`
	Tags                  *[]uuid.UUID             `json:"tags"`
	Locations             *[]catalog.LocationInput `json:"locations"`
	Image                 *string                  `json:"image" validate:"omitnil,max=2048"`
	AboutMaster           *string                  `json:"about_master"`
	SiteAddress           *string                  `json:"site_address" validate:"omitnil,url"`
	PhoneNumber           *string                  `json:"phone_number"`
	SocialNetworkContacts *string                  `json:"social_network_contacts" validate:"omitnil,max=100"`
}

func serviceID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, ErrServiceNotFound
	}
	return id, nil
}

// GET /services?tags=a&activity=b&master=<id>&is_favorited=1&q=&sort=&page=&limit=
func (h *Handler) ListServices(c echo.Context) error {
	qp := c.QueryParams()
	f := ServiceFilter{
		TagSlugs:      splitValues(qp["tags"]),
		ActivitySlugs: splitValues(qp["activity"]),
		Query:         c.QueryParam("q"),
		Sort:          c.QueryParam("sort"),
	}
	if raw := c.QueryParam("master"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Respond(c, apperr.Validation("master: invalid id"))
		}
		f.MasterID = id
	}
	favoritedOnly := isTruthy(c.QueryParam("is_favorited"))

	p := pagination.FromRequest(c)
	list, total, err := h.services.List(c.Request().Context(), middleware.CallerFrom(c), f, favoritedOnly, p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(list, total, p))
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GET /services/:id
func (h *Handler) GetService(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	svc, err := h.services.Get(c.Request().Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}

// POST /services
func (h *Handler) CreateService(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceService, access.ActionCreate, uuid.Nil); err != nil {
		return apperr.Respond(c, err)
	}

	req := new(ServiceRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	svc, err := h.services.Create(c.Request().Context(), caller, req.input())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// PUT /services/:id
func (h *Handler) ReplaceService(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(ServiceRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	svc, err := h.services.Replace(c.Request().Context(), middleware.CallerFrom(c), id, req.input())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}

// PATCH /services/:id
func (h *Handler) PatchService(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(PatchServiceRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	if req.Locations != nil {
		for i := range *req.Locations {
			if err := c.Validate(&(*req.Locations)[i]); err != nil {
				return apperr.Respond(c, err)
			}
		}
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	svc, err := h.services.Patch(c.Request().Context(), middleware.CallerFrom(c), id, ServicePatch{
		Name:                  req.Name,
		Description:           req.Description,
		Image:                 req.Image,
		AboutMaster:           req.AboutMaster,
		SiteAddress:           req.SiteAddress,
		PhoneNumber:           req.PhoneNumber,
		SocialNetworkContacts: req.SocialNetworkContacts,
		Activities:            req.Activities,
		Tags:                  req.Tags,
		Locations:             req.Locations,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}

// DELETE /services/:id
func (h *Handler) DeleteService(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.services.Delete(c.Request().Context(), middleware.CallerFrom(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /services/:id/favorite
func (h *Handler) AddFavorite(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	brief, err := h.services.AddFavorite(c.Request().Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, brief)
}

// DELETE /services/:id/favorite
func (h *Handler) RemoveFavorite(c echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.services.RemoveFavorite(c.Request().Context(), middleware.CallerFrom(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
