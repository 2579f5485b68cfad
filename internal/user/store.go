package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/db"
	"github.com/sudo-init-do/artmaster/internal/pagination"
)

var ErrNotFound = apperr.NotFound("user not found")

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Role(ctx context.Context, id uuid.UUID) (access.Role, error)
	Profile(ctx context.Context, id, viewer uuid.UUID) (*Profile, error)
	Update(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error)
	ListSubscriptions(ctx context.Context, clientID uuid.UUID, p pagination.Params) ([]MasterSummary, int, error)
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name, role, phone, photo, password, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&role, &u.Phone, &u.Photo, &u.Password, &u.CreatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = access.Role(role)
	return &u, nil
}

// conflict turns a users unique violation into a field-specific message.
func conflict(err error) error {
	name, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	switch name {
	case "users_username_key":
		return apperr.Conflict("user with this username already exists")
	case "users_email_key":
		return apperr.Conflict("user with this email already exists")
	case "users_phone_key":
		return apperr.Conflict("user with this phone already exists")
	default:
		return apperr.Conflict("user with this username and email already exists")
	}
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.Role == access.RoleAnonymous {
		u.Role = access.RoleClient
	}
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password, role, phone, photo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, u.Username, u.Email, u.FirstName, u.LastName, u.Password, string(u.Role), u.Phone, u.Photo,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", conflict(err))
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *PGStore) Role(ctx context.Context, id uuid.UUID) (access.Role, error) {
	var role string
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if db.IsNoRows(err) {
			return access.RoleAnonymous, ErrNotFound
		}
		return access.RoleAnonymous, fmt.Errorf("load role: %w", err)
	}
	return access.Role(role), nil
}

func (s *PGStore) Profile(ctx context.Context, id, viewer uuid.UUID) (*Profile, error) {
	var (
		p           Profile
		role        string
		subscribers int
	)
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.role, u.photo,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.master_id = u.id),
			(SELECT COUNT(*) FROM subscriptions s WHERE s.client_id = u.id),
			(SELECT COUNT(*) FROM favorites f WHERE f.user_id = u.id),
			EXISTS (SELECT 1 FROM subscriptions s WHERE s.master_id = u.id AND s.client_id = $2)
		FROM users u
		WHERE u.id = $1
	`, id, viewer).Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &role, &p.Photo,
		&subscribers, &p.SubscriptionsCount, &p.FavoritesCount, &p.IsSubscribed)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p.Role = access.Role(role)
	if p.Role == access.RoleMaster {
		p.SubscribersCount = &subscribers
	}
	return &p, nil
}

func (s *PGStore) Update(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, err := scanUser(db.Conn(ctx, s.pool).QueryRow(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			phone = COALESCE($5, phone),
			photo = COALESCE($6, photo)
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.Username, upd.FirstName, upd.LastName, upd.Phone, upd.Photo))
	if err != nil {
		return nil, fmt.Errorf("update user: %w", conflict(err))
	}
	return u, nil
}

func (s *PGStore) ListSubscriptions(ctx context.Context, clientID uuid.UUID, p pagination.Params) ([]MasterSummary, int, error) {
	conn := db.Conn(ctx, s.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name,
			(SELECT COUNT(*) FROM subscriptions x WHERE x.master_id = u.id)
		FROM subscriptions s
		JOIN users u ON u.id = s.master_id
		WHERE s.client_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3
	`, clientID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []MasterSummary
	for rows.Next() {
		m := MasterSummary{IsSubscribed: true}
		if err := rows.Scan(&m.ID, &m.Username, &m.Email, &m.FirstName, &m.LastName, &m.SubscribersCount); err != nil {
			return nil, 0, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
