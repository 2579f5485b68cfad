package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type subKey struct{ client, master uuid.UUID }

type fakeStore struct {
	users   map[uuid.UUID]*User
	subs    map[subKey]bool
	linkErr error
}

func newFakeStore(users ...*User) *fakeStore {
	s := &fakeStore{users: map[uuid.UUID]*User{}, subs: map[subKey]bool{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) Role(ctx context.Context, id uuid.UUID) (access.Role, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *fakeStore) Profile(_ context.Context, id, viewer uuid.UUID) (*Profile, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := &Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
	subscribers := 0
	for k := range s.subs {
		if k.master == id {
			subscribers++
		}
		if k.client == id {
			p.SubscriptionsCount++
		}
	}
	if u.Role == access.RoleMaster {
		p.SubscribersCount = &subscribers
	}
	p.IsSubscribed = s.subs[subKey{viewer, id}]
	return p, nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	return u, nil
}

func (s *fakeStore) ListSubscriptions(_ context.Context, clientID uuid.UUID, _ pagination.Params) ([]MasterSummary, int, error) {
	var out []MasterSummary
	for k := range s.subs {
		if k.client == clientID {
			out = append(out, MasterSummary{ID: k.master, Username: s.users[k.master].Username, IsSubscribed: true})
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) Link(_ context.Context, client, master uuid.UUID) (bool, error) {
	if s.linkErr != nil {
		return false, s.linkErr
	}
	k := subKey{client, master}
	if s.subs[k] {
		return false, nil
	}
	s.subs[k] = true
	return true, nil
}

func (s *fakeStore) Unlink(_ context.Context, client, master uuid.UUID) (bool, error) {
	k := subKey{client, master}
	if !s.subs[k] {
		return false, nil
	}
	delete(s.subs, k)
	return true, nil
}

type fixture struct {
	e      *echo.Echo
	store  *fakeStore
	client *User
	master *User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	client := &User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: access.RoleClient}
	master := &User{ID: uuid.New(), Username: "bob", Email: "bob@example.com", Role: access.RoleMaster}
	store := newFakeStore(client, master)
	h := NewHandler(store, store, "RU")

	e := echo.New()
	e.Validator = validation.New()
	withCaller := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, err := uuid.Parse(c.Request().Header.Get("X-Test-User")); err == nil {
				if u, ok := store.users[id]; ok {
					middleware.SetCaller(c, access.Caller{ID: u.ID, Role: u.Role})
				}
			}
			return next(c)
		}
	}
	e.Use(withCaller)
	e.GET("/users/subscriptions", h.ListSubscriptions)
	e.PATCH("/users/me", h.UpdateMe)
	e.GET("/users/:id", h.GetProfile)
	e.POST("/users/:id/subscribe", h.Subscribe)
	e.DELETE("/users/:id/subscribe", h.Unsubscribe)

	return &fixture{e: e, store: store, client: client, master: master}
}

func (f *fixture) do(method, path string, as *User, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != nil {
		req.Header.Set("X-Test-User", as.ID.String())
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["errors"]
}

func TestSubscribe_Toggle(t *testing.T) {
	f := setup(t)
	path := "/users/" + f.master.ID.String() + "/subscribe"

	rec := f.do(http.MethodPost, path, f.client, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var p Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.True(t, p.IsSubscribed)
	require.NotNil(t, p.SubscribersCount)
	assert.Equal(t, 1, *p.SubscribersCount)

	rec = f.do(http.MethodPost, path, f.client, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate add attempt", errorBody(t, rec))

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, f.client, "").Code)

	rec = f.do(http.MethodDelete, path, f.client, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found: delete of nonexistent object", errorBody(t, rec))
}

func TestSubscribe_Self(t *testing.T) {
	f := setup(t)
	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		rec := f.do(method, "/users/"+f.master.ID.String()+"/subscribe", f.master, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "subscribing to yourself is forbidden", errorBody(t, rec))
	}
}

func TestSubscribe_TargetMustBeMaster(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodPost, "/users/"+f.client.ID.String()+"/subscribe", f.master, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/users/"+uuid.NewString()+"/subscribe", f.client, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribe_MasterDeletedConcurrently(t *testing.T) {
	f := setup(t)
	f.store.linkErr = fmt.Errorf("link subscriptions: %w",
		&pgconn.PgError{Code: "23503", ConstraintName: "subscriptions_master_id_fkey"})

	rec := f.do(http.MethodPost, "/users/"+f.master.ID.String()+"/subscribe", f.client, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "master not found", errorBody(t, rec))
}

func TestSubscribe_Anonymous(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodPost, "/users/"+f.master.ID.String()+"/subscribe", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/users/subscriptions", nil, "").Code)
}

func TestListSubscriptions(t *testing.T) {
	f := setup(t)
	f.store.subs[subKey{f.client.ID, f.master.ID}] = true

	rec := f.do(http.MethodGet, "/users/subscriptions", f.client, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page pagination.Page[MasterSummary]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "bob", page.Results[0].Username)
}

func TestGetProfile(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/users/"+f.client.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "subscribers_count")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/users/not-a-uuid", nil, "").Code)
}

func TestUpdateMe(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPatch, "/users/me", f.client, `{"phone":"8 912 345 67 89"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+79123456789", f.client.Phone)

	rec = f.do(http.MethodPatch, "/users/me", f.client, `{"phone":"12"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/users/me", f.client, `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "alice", f.client.Username)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPatch, "/users/me", nil, `{}`).Code)
}
