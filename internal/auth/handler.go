package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/phone"
	"github.com/sudo-init-do/artmaster/internal/user"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

// Accounts is the part of the user store the auth endpoints need.
type Accounts interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Handler struct {
	accounts    Accounts
	tokens      *Tokens
	phoneRegion string
}

func NewHandler(accounts Accounts, tokens *Tokens, phoneRegion string) *Handler {
	return &Handler{accounts: accounts, tokens: tokens, phoneRegion: phoneRegion}
}

type SignupRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Role      string `json:"role" validate:"omitempty,oneof=client master"`
	Phone     string `json:"phone"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// ===== Signup =====
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}

	u := &user.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      access.RoleClient,
	}
	if req.Role != "" {
		u.Role = access.Role(req.Role)
	}
	if req.Phone != "" {
		normalized, err := phone.Normalize(req.Phone, h.phoneRegion)
		if err != nil {
			return apperr.Respond(c, err)
		}
		u.Phone = normalized
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	u.Password = hashed

	if err := h.accounts.Create(c.Request().Context(), u); err != nil {
		return apperr.Respond(c, err)
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: u})
}
