package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/access"
)

type User struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      access.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	Photo     string      `json:"photo,omitempty"`
	Password  string      `json:"-"` // bcrypt hash, never returned
	CreatedAt time.Time   `json:"created_at"`
}

// Profile is the public view of a user with relation counts computed on read.
type Profile struct {
	ID                 uuid.UUID   `json:"id"`
	Username           string      `json:"username"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Role               access.Role `json:"role"`
	Photo              string      `json:"photo,omitempty"`
	SubscribersCount   *int        `json:"subscribers_count,omitempty"` // masters only
	SubscriptionsCount int         `json:"subscriptions_count"`
	FavoritesCount     int         `json:"favorites_count"`
	IsSubscribed       bool        `json:"is_subscribed"`
}

// MasterSummary is how a master appears nested in other resources.
type MasterSummary struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	SubscribersCount int       `json:"subscribers_count"`
	IsSubscribed     bool      `json:"is_subscribed"`
}

// ProfileUpdate carries the optional fields of PATCH /users/me. Nil leaves a
// field unchanged.
type ProfileUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Phone     *string
	Photo     *string
}
