package marketplace

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/user"
)

var (
	ErrServiceNotFound    = apperr.NotFound("service not found")
	ErrServiceNameTaken   = apperr.Conflict("service with this name already exists")
	ErrNonexistentElement = apperr.Validation("nonexistent element")
	ErrDuplicateElement   = apperr.Validation("duplicate element")
	ErrEmptyRelation      = apperr.Validation("at least one element required")
)

// Date renders as YYYY-MM-DD.
type Date time.Time

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+time.DateOnly+`"`, string(b))
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

// Service is a listing as returned to clients, with relations expanded and
// the rating aggregated from its reviews.
type Service struct {
	ID                    uuid.UUID          `json:"id"`
	Name                  string             `json:"name"`
	Description           string             `json:"description"`
	Master                user.MasterSummary `json:"master"`
	Activities            []catalog.Activity `json:"activities"`
	Tags                  []catalog.Tag      `json:"tags"`
	Locations             []catalog.Location `json:"locations"`
	Image                 string             `json:"image"`
	AboutMaster           *string            `json:"about_master"`
	SiteAddress           *string            `json:"site_address"`
	PhoneNumber           string             `json:"phone_number"`
	SocialNetworkContacts *string            `json:"social_network_contacts"`
	Rating                *float64           `json:"rating"` // nil when there are no reviews
	IsFavorited           bool               `json:"is_favorited"`
	Created               Date               `json:"created"`
}

// ServiceRow is the services table row without relations.
type ServiceRow struct {
	ID                    uuid.UUID
	MasterID              uuid.UUID
	Name                  string
	Description           string
	Image                 string
	AboutMaster           *string
	SiteAddress           *string
	PhoneNumber           string
	SocialNetworkContacts *string
	Created               time.Time
}

// Brief is the short form of a service used in favorite responses.
type Brief struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Activities []string  `json:"activities"`
}

func (s *Service) Brief() Brief {
	b := Brief{ID: s.ID, Name: s.Name, Activities: make([]string, 0, len(s.Activities))}
	for _, a := range s.Activities {
		b.Activities = append(b.Activities, a.Name)
	}
	return b
}

type ServiceFilter struct {
	TagSlugs      []string
	ActivitySlugs []string
	MasterID      uuid.UUID
	FavoritedBy   uuid.UUID
	Query         string
	Sort          string
}

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortRating = "rating"
	SortName   = "name"
)

// ServiceInput is a complete service payload for create and full update.
type ServiceInput struct {
	Name                  string
	Description           string
	Image                 string
	AboutMaster           *string
	SiteAddress           *string
	PhoneNumber           string
	SocialNetworkContacts *string
	Activities            []uuid.UUID
	Tags                  []uuid.UUID
	Locations             []catalog.LocationInput
}

// ServicePatch is a partial update. Nil fields and relation sets are kept.
type ServicePatch struct {
	Name                  *string
	Description           *string
	Image                 *string
	AboutMaster           *string
	SiteAddress           *string
	PhoneNumber           *string
	SocialNetworkContacts *string
	Activities            *[]uuid.UUID
	Tags                  *[]uuid.UUID
	Locations             *[]catalog.LocationInput
}
