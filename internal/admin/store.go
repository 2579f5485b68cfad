package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/user"
)

var ErrUserNotFound = apperr.NotFound("user not found")

// Counts is a snapshot of table sizes for the dashboard.
type Counts struct {
	Users         int `json:"users"`
	Clients       int `json:"clients"`
	Masters       int `json:"masters"`
	Admins        int `json:"admins"`
	Services      int `json:"services"`
	Reviews       int `json:"reviews"`
	Comments      int `json:"comments"`
	Favorites     int `json:"favorites"`
	Subscriptions int `json:"subscriptions"`
	Tags          int `json:"tags"`
	Activities    int `json:"activities"`
}

// ServiceOverview is one row of the moderation listing.
type ServiceOverview struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	MasterID       uuid.UUID `json:"master_id"`
	MasterUsername string    `json:"master_username"`
	Reviews        int       `json:"reviews"`
	Favorites      int       `json:"favorites"`
	Rating         *float64  `json:"rating"`
	Created        string    `json:"created"`
}

type Store interface {
	Stats(ctx context.Context) (*Counts, error)
	ListUsers(ctx context.Context, role access.Role, p pagination.Params) ([]user.User, int, error)
	ListServices(ctx context.Context, p pagination.Params) ([]ServiceOverview, int, error)
	SetRole(ctx context.Context, id uuid.UUID, role access.Role) error
	SetRoleByEmail(ctx context.Context, email string, role access.Role) error
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Stats(ctx context.Context) (*Counts, error) {
	var c Counts
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'client'),
			(SELECT COUNT(*) FROM users WHERE role = 'master'),
			(SELECT COUNT(*) FROM users WHERE role = 'admin'),
			(SELECT COUNT(*) FROM services),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM favorites),
			(SELECT COUNT(*) FROM subscriptions),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM activities)
	`).Scan(&c.Users, &c.Clients, &c.Masters, &c.Admins, &c.Services, &c.Reviews,
		&c.Comments, &c.Favorites, &c.Subscriptions, &c.Tags, &c.Activities)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &c, nil
}

// ListUsers pages through users, newest first. An empty role lists everyone.
func (s *PGStore) ListUsers(ctx context.Context, role access.Role, p pagination.Params) ([]user.User, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE $1::text = '' OR role = $1`, string(role),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, username, email, first_name, last_name, role, phone, photo, created_at
		FROM users
		WHERE $1::text = '' OR role = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(role), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		var r string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&r, &u.Phone, &u.Photo, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		u.Role = access.Role(r)
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (s *PGStore) ListServices(ctx context.Context, p pagination.Params) ([]ServiceOverview, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.name, s.master_id, u.username,
			(SELECT COUNT(*) FROM reviews r WHERE r.service_id = s.id),
			(SELECT COUNT(*) FROM favorites f WHERE f.service_id = s.id),
			(SELECT AVG(r.score)::float8 FROM reviews r WHERE r.service_id = s.id),
			to_char(s.created, 'YYYY-MM-DD')
		FROM services s
		JOIN users u ON u.id = s.master_id
		ORDER BY s.created DESC
		LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var items []ServiceOverview
	for rows.Next() {
		var o ServiceOverview
		if err := rows.Scan(&o.ID, &o.Name, &o.MasterID, &o.MasterUsername,
			&o.Reviews, &o.Favorites, &o.Rating, &o.Created); err != nil {
			return nil, 0, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

func (s *PGStore) SetRole(ctx context.Context, id uuid.UUID, role access.Role) error {
	ct, err := s.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PGStore) SetRoleByEmail(ctx context.Context, email string, role access.Role) error {
	ct, err := s.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)), string(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
