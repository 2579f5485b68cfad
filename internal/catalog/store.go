package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/db"
)

var (
	ErrTagNotFound      = apperr.NotFound("tag not found")
	ErrActivityNotFound = apperr.NotFound("activity not found")
)

type Store interface {
	ListTags(ctx context.Context) ([]Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*Tag, error)
	CreateTag(ctx context.Context, t *Tag) error
	TagsByIDs(ctx context.Context, ids []uuid.UUID) ([]Tag, error)

	ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error)
	GetActivity(ctx context.Context, id uuid.UUID) (*Activity, error)
	CreateActivity(ctx context.Context, a *Activity) error
	ActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]Activity, error)

	CreateLocations(ctx context.Context, in []LocationInput) ([]Location, error)
	DeleteLocations(ctx context.Context, ids []uuid.UUID) error
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func scanTag(row pgx.Row) (Tag, error) {
	var t Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
		return t, err
	}
	t.ColorName, _ = ColorName(t.Color)
	return t, nil
}

func (s *PGStore) ListTags(ctx context.Context) ([]Tag, error) {
	return s.queryTags(ctx, `SELECT id, name, slug, color FROM tags ORDER BY name`)
}

func (s *PGStore) TagsByIDs(ctx context.Context, ids []uuid.UUID) ([]Tag, error) {
	return s.queryTags(ctx, `SELECT id, name, slug, color FROM tags WHERE id = ANY($1) ORDER BY name`, ids)
}

func (s *PGStore) queryTags(ctx context.Context, sql string, args ...any) ([]Tag, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *PGStore) GetTag(ctx context.Context, id uuid.UUID) (*Tag, error) {
	t, err := scanTag(db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT id, name, slug, color FROM tags WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

func (s *PGStore) CreateTag(ctx context.Context, t *Tag) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx,
		`INSERT INTO tags (name, slug, color) VALUES ($1, $2, $3) RETURNING id`,
		t.Name, t.Slug, t.Color).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create tag: %w", conflict("tag", err))
	}
	return nil
}

func (s *PGStore) ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	slugs := f.Slugs
	if slugs == nil {
		slugs = []string{}
	}
	return s.queryActivities(ctx, `
		SELECT id, name, slug, description FROM activities
		WHERE ($1::text = '' OR name ILIKE $1 || '%')
			AND (cardinality($2::text[]) = 0 OR slug = ANY($2))
		ORDER BY name
	`, escapeLike(f.NamePrefix), slugs)
}

func (s *PGStore) ActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]Activity, error) {
	return s.queryActivities(ctx,
		`SELECT id, name, slug, description FROM activities WHERE id = ANY($1) ORDER BY name`, ids)
}

func (s *PGStore) queryActivities(ctx context.Context, sql string, args ...any) ([]Activity, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.Description); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) GetActivity(ctx context.Context, id uuid.UUID) (*Activity, error) {
	var a Activity
	err := db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT id, name, slug, description FROM activities WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.Description)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &a, nil
}

func (s *PGStore) CreateActivity(ctx context.Context, a *Activity) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx,
		`INSERT INTO activities (name, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		a.Name, a.Slug, a.Description).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create activity: %w", conflict("activity", err))
	}
	return nil
}

// CreateLocations inserts one row per input, preserving order.
func (s *PGStore) CreateLocations(ctx context.Context, in []LocationInput) ([]Location, error) {
	conn := db.Conn(ctx, s.pool)
	out := make([]Location, 0, len(in))
	for _, l := range in {
		loc := Location{
			Country: l.Country, City: l.City, Street: l.Street,
			HouseNumber: l.HouseNumber, Building: l.Building, OfficeNumber: l.OfficeNumber,
		}
		err := conn.QueryRow(ctx, `
			INSERT INTO locations (country, city, street, house_number, building, office_number)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, l.Country, l.City, l.Street, l.HouseNumber, l.Building, l.OfficeNumber).Scan(&loc.ID)
		if err != nil {
			return nil, fmt.Errorf("create location: %w", err)
		}
		out = append(out, loc)
	}
	return out, nil
}

func (s *PGStore) DeleteLocations(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM locations WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete locations: %w", err)
	}
	return nil
}

// conflict maps "<entity>s_<field>_key" unique violations to a readable message.
func conflict(entity string, err error) error {
	name, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	field := "value"
	for _, f := range []string{"name", "slug", "color"} {
		if strings.HasSuffix(name, "_"+f+"_key") {
			field = f
		}
	}
	return apperr.Conflict(fmt.Sprintf("%s with this %s already exists", entity, field))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
