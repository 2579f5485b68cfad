package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/user"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type fakeStore struct {
	users []user.User
}

func (s *fakeStore) Stats(context.Context) (*Counts, error) {
	c := &Counts{Users: len(s.users)}
	for _, u := range s.users {
		switch u.Role {
		case access.RoleClient:
			c.Clients++
		case access.RoleMaster:
			c.Masters++
		case access.RoleAdmin:
			c.Admins++
		}
	}
	return c, nil
}

func (s *fakeStore) ListUsers(_ context.Context, role access.Role, _ pagination.Params) ([]user.User, int, error) {
	var out []user.User
	for _, u := range s.users {
		if role == access.RoleAnonymous || u.Role == role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) ListServices(context.Context, pagination.Params) ([]ServiceOverview, int, error) {
	return nil, 0, nil
}

func (s *fakeStore) SetRole(_ context.Context, id uuid.UUID, role access.Role) error {
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = role
			return nil
		}
	}
	return ErrUserNotFound
}

func (s *fakeStore) SetRoleByEmail(_ context.Context, email string, role access.Role) error {
	for i := range s.users {
		if s.users[i].Email == email {
			s.users[i].Role = role
			return nil
		}
	}
	return ErrUserNotFound
}

func setup(t *testing.T) (*echo.Echo, *fakeStore) {
	t.Helper()
	store := &fakeStore{users: []user.User{
		{ID: uuid.New(), Username: "root", Email: "root@example.com", Role: access.RoleAdmin},
		{ID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: access.RoleClient},
		{ID: uuid.New(), Username: "bob", Email: "bob@example.com", Role: access.RoleMaster},
	}}
	h := NewHandler(store)

	e := echo.New()
	e.Validator = validation.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := uuid.Parse(c.Request().Header.Get("X-Test-User"))
			if err == nil {
				for _, u := range store.users {
					if u.ID == id {
						middleware.SetCaller(c, access.Caller{ID: u.ID, Role: u.Role})
					}
				}
			}
			return next(c)
		}
	})
	g := e.Group("/admin", middleware.AdminGuard)
	g.GET("/stats", h.Stats)
	g.GET("/users", h.ListUsers)
	g.GET("/services", h.ListServices)
	g.POST("/users/:id/role", h.SetUserRole)
	return e, store
}

func do(e *echo.Echo, method, path string, as uuid.UUID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != uuid.Nil {
		req.Header.Set("X-Test-User", as.String())
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e, store := setup(t)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/admin/stats", uuid.Nil, "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin/stats", store.users[1].ID, "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin/stats", store.users[2].ID, "").Code)

	rec := do(e, http.MethodGet, "/admin/stats", store.users[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c Counts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 3, c.Users)
	assert.Equal(t, 1, c.Masters)
}

func TestListUsers_RoleFilter(t *testing.T) {
	e, store := setup(t)
	admin := store.users[0].ID

	rec := do(e, http.MethodGet, "/admin/users?role=master", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count   int         `json:"count"`
		Results []user.User `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, "bob", page.Results[0].Username)

	rec = do(e, http.MethodGet, "/admin/users?role=creator", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetUserRole(t *testing.T) {
	e, store := setup(t)
	admin := store.users[0].ID
	alice := store.users[1].ID

	rec := do(e, http.MethodPost, "/admin/users/"+alice.String()+"/role", admin, `{"role":"master"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, access.RoleMaster, store.users[1].Role)

	rec = do(e, http.MethodPost, "/admin/users/"+alice.String()+"/role", admin, `{"role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/admin/users/"+admin.String()+"/role", admin, `{"role":"client"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, access.RoleAdmin, store.users[0].Role)

	rec = do(e, http.MethodPost, "/admin/users/"+uuid.NewString()+"/role", admin, `{"role":"client"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
