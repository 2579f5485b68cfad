package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/db"
	"github.com/sudo-init-do/artmaster/internal/pagination"
)

type ServiceStore interface {
	Insert(ctx context.Context, row *ServiceRow) error
	RowForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRow, error)
	Update(ctx context.Context, row *ServiceRow) error
	Delete(ctx context.Context, id uuid.UUID) error
	MasterOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	SetActivities(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) error
	SetTags(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) error
	// SetLocations links the given locations and returns the ids that were
	// linked before.
	SetLocations(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)

	Get(ctx context.Context, id, viewer uuid.UUID) (*Service, error)
	List(ctx context.Context, f ServiceFilter, viewer uuid.UUID, p pagination.Params) ([]Service, int, error)
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func translate(err error) error {
	if name, ok := db.UniqueViolation(err); ok && name == "services_master_name_key" {
		return ErrServiceNameTaken
	}
	return err
}

func (s *PGStore) Insert(ctx context.Context, row *ServiceRow) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO services (name, description, master_id, image, about_master, site_address,
			phone_number, social_network_contacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created
	`, row.Name, row.Description, row.MasterID, row.Image, row.AboutMaster, row.SiteAddress,
		row.PhoneNumber, row.SocialNetworkContacts,
	).Scan(&row.ID, &row.Created)
	if err != nil {
		return fmt.Errorf("insert service: %w", translate(err))
	}
	return nil
}

func (s *PGStore) RowForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRow, error) {
	var r ServiceRow
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		SELECT id, master_id, name, description, image, about_master, site_address,
			phone_number, social_network_contacts, created
		FROM services
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&r.ID, &r.MasterID, &r.Name, &r.Description, &r.Image, &r.AboutMaster,
		&r.SiteAddress, &r.PhoneNumber, &r.SocialNetworkContacts, &r.Created)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("lock service: %w", err)
	}
	return &r, nil
}

func (s *PGStore) Update(ctx context.Context, row *ServiceRow) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `
		UPDATE services SET
			name = $2, description = $3, image = $4, about_master = $5,
			site_address = $6, phone_number = $7, social_network_contacts = $8
		WHERE id = $1
	`, row.ID, row.Name, row.Description, row.Image, row.AboutMaster, row.SiteAddress,
		row.PhoneNumber, row.SocialNetworkContacts)
	if err != nil {
		return fmt.Errorf("update service: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (s *PGStore) MasterOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var master uuid.UUID
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `SELECT master_id FROM services WHERE id = $1`, id).Scan(&master)
	if err != nil {
		if db.IsNoRows(err) {
			return uuid.Nil, ErrServiceNotFound
		}
		return uuid.Nil, fmt.Errorf("service master: %w", err)
	}
	return master, nil
}

func (s *PGStore) SetActivities(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) error {
	return s.replaceLinks(ctx, "activity_services", "activity_id", serviceID, ids)
}

func (s *PGStore) SetTags(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) error {
	return s.replaceLinks(ctx, "tag_services", "tag_id", serviceID, ids)
}

func (s *PGStore) replaceLinks(ctx context.Context, table, col string, serviceID uuid.UUID, ids []uuid.UUID) error {
	conn := db.Conn(ctx, s.pool)
	if _, err := conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE service_id = $1`, table), serviceID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := conn.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, service_id) SELECT unnest($2::uuid[]), $1`, table, col,
	), serviceID, ids)
	if err != nil {
		return fmt.Errorf("link %s: %w", table, err)
	}
	return nil
}

func (s *PGStore) SetLocations(ctx context.Context, serviceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx,
		`DELETE FROM location_services WHERE service_id = $1 RETURNING location_id`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("clear location_services: %w", err)
	}
	previous, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("clear location_services: %w", err)
	}

	if len(ids) > 0 {
		_, err = db.Conn(ctx, s.pool).Exec(ctx,
			`INSERT INTO location_services (location_id, service_id) SELECT unnest($2::uuid[]), $1`,
			serviceID, ids)
		if err != nil {
			return nil, fmt.Errorf("link location_services: %w", err)
		}
	}
	return previous, nil
}

// serviceSelect takes the placeholder index of the viewer id.
const serviceSelect = `
	SELECT s.id, s.name, s.description, s.image, s.about_master, s.site_address,
		s.phone_number, s.social_network_contacts, s.created,
		u.id, u.username, u.email, u.first_name, u.last_name,
		(SELECT COUNT(*) FROM subscriptions sub WHERE sub.master_id = u.id),
		EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.master_id = u.id AND sub.client_id = $%[1]d),
		(SELECT AVG(r.score)::float8 FROM reviews r WHERE r.service_id = s.id) AS rating,
		EXISTS (SELECT 1 FROM favorites f WHERE f.service_id = s.id AND f.user_id = $%[1]d)
	FROM services s
	JOIN users u ON u.id = s.master_id`

func scanService(row pgx.Row) (Service, error) {
	var (
		svc     Service
		created time.Time
	)
	err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Image, &svc.AboutMaster,
		&svc.SiteAddress, &svc.PhoneNumber, &svc.SocialNetworkContacts, &created,
		&svc.Master.ID, &svc.Master.Username, &svc.Master.Email, &svc.Master.FirstName,
		&svc.Master.LastName, &svc.Master.SubscribersCount, &svc.Master.IsSubscribed,
		&svc.Rating, &svc.IsFavorited)
	svc.Created = Date(created)
	return svc, err
}

func (s *PGStore) Get(ctx context.Context, id, viewer uuid.UUID) (*Service, error) {
	svc, err := scanService(db.Conn(ctx, s.pool).QueryRow(ctx,
		fmt.Sprintf(serviceSelect, 2)+` WHERE s.id = $1`, id, viewer))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	list := []Service{svc}
	if err := s.loadRelations(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// conditions renders the WHERE clause for f with placeholders starting at $1.
func (f ServiceFilter) conditions() (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if len(f.TagSlugs) > 0 {
		add(`EXISTS (SELECT 1 FROM tag_services ts JOIN tags t ON t.id = ts.tag_id
			WHERE ts.service_id = s.id AND t.slug = ANY($%d))`, f.TagSlugs)
	}
	if len(f.ActivitySlugs) > 0 {
		add(`EXISTS (SELECT 1 FROM activity_services xs JOIN activities a ON a.id = xs.activity_id
			WHERE xs.service_id = s.id AND a.slug = ANY($%d))`, f.ActivitySlugs)
	}
	if f.MasterID != uuid.Nil {
		add(`s.master_id = $%d`, f.MasterID)
	}
	if f.FavoritedBy != uuid.Nil {
		add(`EXISTS (SELECT 1 FROM favorites fv WHERE fv.service_id = s.id AND fv.user_id = $%d)`, f.FavoritedBy)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add(`(s.name ILIKE $%[1]d OR s.description ILIKE $%[1]d)`, "%"+q+"%")
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (f ServiceFilter) orderBy() string {
	switch f.Sort {
	case SortOldest:
		return " ORDER BY s.created ASC, s.id"
	case SortRating:
		return " ORDER BY rating DESC NULLS LAST, s.created DESC, s.id"
	case SortName:
		return " ORDER BY s.name ASC, s.id"
	default:
		return " ORDER BY s.created DESC, s.id"
	}
}

func (s *PGStore) List(ctx context.Context, f ServiceFilter, viewer uuid.UUID, p pagination.Params) ([]Service, int, error) {
	conn := db.Conn(ctx, s.pool)
	where, args := f.conditions()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM services s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	viewerIdx := len(args) + 1
	query := fmt.Sprintf(serviceSelect, viewerIdx) + where + f.orderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", viewerIdx+1, viewerIdx+2)
	args = append(args, viewer, p.Limit, p.Offset())

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := s.loadRelations(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// loadRelations fills activities, tags and locations for a page of services
// with one query per relation.
func (s *PGStore) loadRelations(ctx context.Context, list []Service) error {
	if len(list) == 0 {
		return nil
	}
	conn := db.Conn(ctx, s.pool)
	ids := make([]uuid.UUID, len(list))
	index := make(map[uuid.UUID]*Service, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = &list[i]
		list[i].Activities = []catalog.Activity{}
		list[i].Tags = []catalog.Tag{}
		list[i].Locations = []catalog.Location{}
	}

	rows, err := conn.Query(ctx, `
		SELECT x.service_id, a.id, a.name, a.slug, a.description
		FROM activity_services x JOIN activities a ON a.id = x.activity_id
		WHERE x.service_id = ANY($1)
		ORDER BY a.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load activities: %w", err)
	}
	for rows.Next() {
		var sid uuid.UUID
		var a catalog.Activity
		if err := rows.Scan(&sid, &a.ID, &a.Name, &a.Slug, &a.Description); err != nil {
			rows.Close()
			return fmt.Errorf("scan activity: %w", err)
		}
		index[sid].Activities = append(index[sid].Activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = conn.Query(ctx, `
		SELECT x.service_id, t.id, t.name, t.slug, t.color
		FROM tag_services x JOIN tags t ON t.id = x.tag_id
		WHERE x.service_id = ANY($1)
		ORDER BY t.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for rows.Next() {
		var sid uuid.UUID
		var t catalog.Tag
		if err := rows.Scan(&sid, &t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
			rows.Close()
			return fmt.Errorf("scan tag: %w", err)
		}
		t.ColorName, _ = catalog.ColorName(t.Color)
		index[sid].Tags = append(index[sid].Tags, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = conn.Query(ctx, `
		SELECT x.service_id, l.id, l.country, l.city, l.street, l.house_number, l.building, l.office_number
		FROM location_services x JOIN locations l ON l.id = x.location_id
		WHERE x.service_id = ANY($1)
		ORDER BY l.country, l.city, l.street, l.house_number
	`, ids)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sid uuid.UUID
		var l catalog.Location
		if err := rows.Scan(&sid, &l.ID, &l.Country, &l.City, &l.Street, &l.HouseNumber,
			&l.Building, &l.OfficeNumber); err != nil {
			return fmt.Errorf("scan location: %w", err)
		}
		index[sid].Locations = append(index[sid].Locations, l)
	}
	return rows.Err()
}
