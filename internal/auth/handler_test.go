package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/user"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type fakeAccounts struct {
	byID map[uuid.UUID]*user.User
}

func (f *fakeAccounts) Create(_ context.Context, u *user.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperr.Conflict("user with this email already exists")
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeAccounts) Role(ctx context.Context, id uuid.UUID) (access.Role, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func newAuthServer() (*echo.Echo, *fakeAccounts, *Tokens) {
	accounts := &fakeAccounts{byID: map[uuid.UUID]*user.User{}}
	tokens := NewTokens("test-secret", time.Hour)
	h := NewHandler(accounts, tokens, "RU")

	e := echo.New()
	e.Validator = validation.New()
	e.Use(middleware.Authenticate(tokens, accounts.Role))
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.GET("/auth/me", h.Me)
	return e, accounts, tokens
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupLoginMe(t *testing.T) {
	e, accounts, _ := newAuthServer()

	rec := post(e, "/auth/signup", `{
		"username": "anna", "email": "Anna@Example.com", "password": "s3cretpass",
		"role": "master", "phone": "+7 912 345 67 89"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var signup AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "anna@example.com", signup.User.Email)
	assert.Equal(t, access.RoleMaster, signup.User.Role)
	assert.Equal(t, "+79123456789", signup.User.Phone)
	assert.NotContains(t, rec.Body.String(), "s3cretpass")

	stored := accounts.byID[signup.User.ID]
	assert.True(t, CheckPassword(stored.Password, "s3cretpass"))

	rec = post(e, "/auth/login", `{"email":"anna@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/auth/login", `{"email":"anna@example.com","password":"s3cretpass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"anna"`)
}

func TestSignup_Rejects(t *testing.T) {
	e, _, _ := newAuthServer()

	tests := []struct {
		name string
		body string
	}{
		{"admin role", `{"username":"x","email":"x@example.com","password":"longenough","role":"admin"}`},
		{"short password", `{"username":"x","email":"x@example.com","password":"short"}`},
		{"bad email", `{"username":"x","email":"nope","password":"longenough"}`},
		{"bad phone", `{"username":"x","email":"x@example.com","password":"longenough","phone":"123"}`},
		{"malformed", `{"username":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, post(e, "/auth/signup", tt.body).Code)
		})
	}

	body := `{"username":"dup","email":"dup@example.com","password":"longenough"}`
	require.Equal(t, http.StatusCreated, post(e, "/auth/signup", body).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/auth/signup", body).Code)
}

func TestMe_Anonymous(t *testing.T) {
	e, _, _ := newAuthServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type roleRecorder map[string]access.Role

func (r roleRecorder) SetRoleByEmail(_ context.Context, email string, role access.Role) error {
	if _, ok := r[email]; !ok {
		return user.ErrNotFound
	}
	r[email] = role
	return nil
}

func TestBootstrapAdmin(t *testing.T) {
	roles := roleRecorder{"boss@example.com": access.RoleClient}

	e := echo.New()
	e.Validator = validation.New()
	e.POST("/on", BootstrapAdmin(roles, "letmein"))
	e.POST("/off", BootstrapAdmin(roles, ""))

	assert.Equal(t, http.StatusForbidden, post(e, "/off", `{"email":"boss@example.com","secret":"x"}`).Code)
	assert.Equal(t, http.StatusForbidden, post(e, "/on", `{"email":"boss@example.com","secret":"guess"}`).Code)
	assert.Equal(t, http.StatusNotFound, post(e, "/on", `{"email":"ghost@example.com","secret":"letmein"}`).Code)

	rec := post(e, "/on", `{"email":"Boss@Example.com","secret":"letmein"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, access.RoleAdmin, roles["boss@example.com"])
}
