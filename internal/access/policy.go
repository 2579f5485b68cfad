package access

import (
	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/apperr"
)

type Role string

const (
	RoleAnonymous Role = ""
	RoleClient    Role = "client"
	RoleMaster    Role = "master"
	RoleAdmin     Role = "admin"
)

// ParseRole accepts only the roles a stored user can hold.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleClient, RoleMaster, RoleAdmin:
		return r, true
	}
	return RoleAnonymous, false
}

// Caller is the identity a request acts as. The zero value is anonymous.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

func (c Caller) Authenticated() bool { return c.ID != uuid.Nil }
func (c Caller) IsAdmin() bool       { return c.Authenticated() && c.Role == RoleAdmin }

type Resource string

const (
	ResourceService      Resource = "service"
	ResourceReview       Resource = "review"
	ResourceComment      Resource = "comment"
	ResourceFavorite     Resource = "favorite"
	ResourceSubscription Resource = "subscription"
	ResourceCatalog      Resource = "catalog"
	ResourceProfile      Resource = "profile"
	ResourceAdmin        Resource = "admin"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type rule int

const (
	nobody rule = iota
	anyone
	authenticated
	masterOrAdmin
	ownerOrAdmin
	adminOnly
)

var policy = map[Resource]map[Action]rule{
	ResourceService: {
		ActionRead: anyone, ActionCreate: masterOrAdmin,
		ActionUpdate: ownerOrAdmin, ActionDelete: ownerOrAdmin,
	},
	ResourceReview: {
		ActionRead: anyone, ActionCreate: authenticated,
		ActionUpdate: ownerOrAdmin, ActionDelete: ownerOrAdmin,
	},
	ResourceComment: {
		ActionRead: anyone, ActionCreate: authenticated,
		ActionUpdate: ownerOrAdmin, ActionDelete: ownerOrAdmin,
	},
	ResourceFavorite: {
		ActionRead: authenticated, ActionCreate: authenticated,
		ActionUpdate: authenticated, ActionDelete: authenticated,
	},
	ResourceSubscription: {
		ActionRead: authenticated, ActionCreate: authenticated,
		ActionUpdate: authenticated, ActionDelete: authenticated,
	},
	ResourceCatalog: {
		ActionRead: anyone, ActionCreate: adminOnly,
		ActionUpdate: adminOnly, ActionDelete: adminOnly,
	},
	ResourceProfile: {
		ActionRead: anyone, ActionCreate: nobody,
		ActionUpdate: ownerOrAdmin, ActionDelete: ownerOrAdmin,
	},
	ResourceAdmin: {
		ActionRead: adminOnly, ActionCreate: adminOnly,
		ActionUpdate: adminOnly, ActionDelete: adminOnly,
	},
}

// Decide reports whether c may perform act on res. owner is the user that owns
// the target object (service master, review/comment author, profile id) and
// is ignored by rules that do not look at ownership.
func Decide(c Caller, res Resource, act Action, owner uuid.UUID) bool {
	switch policy[res][act] {
	case anyone:
		return true
	case authenticated:
		return c.Authenticated()
	case masterOrAdmin:
		return c.Authenticated() && (c.Role == RoleMaster || c.Role == RoleAdmin)
	case ownerOrAdmin:
		return c.IsAdmin() || (c.Authenticated() && owner != uuid.Nil && c.ID == owner)
	case adminOnly:
		return c.IsAdmin()
	default:
		return false
	}
}

// Check is Decide as an error: anonymous callers get 401, everyone else 403.
func Check(c Caller, res Resource, act Action, owner uuid.UUID) error {
	if Decide(c, res, act, owner) {
		return nil
	}
	if !c.Authenticated() {
		return apperr.ErrAuthRequired
	}
	return apperr.ErrPermissionDenied
}
