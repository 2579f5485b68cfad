package marketplace

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/user"
)

type pair struct{ a, b uuid.UUID }

// memDB backs every store interface of the package in memory.
type memDB struct {
	usernames map[uuid.UUID]string

	rows       map[uuid.UUID]*ServiceRow
	order      []uuid.UUID
	activities map[uuid.UUID][]uuid.UUID
	tags       map[uuid.UUID][]uuid.UUID
	locations  map[uuid.UUID][]uuid.UUID

	catalogTags       map[uuid.UUID]catalog.Tag
	catalogActivities map[uuid.UUID]catalog.Activity
	catalogLocations  map[uuid.UUID]catalog.Location

	favorites map[pair]bool

	reviews  map[uuid.UUID]*Review
	comments map[uuid.UUID]*Comment
}

func newMemDB() *memDB {
	return &memDB{
		usernames:         map[uuid.UUID]string{},
		rows:              map[uuid.UUID]*ServiceRow{},
		activities:        map[uuid.UUID][]uuid.UUID{},
		tags:              map[uuid.UUID][]uuid.UUID{},
		locations:         map[uuid.UUID][]uuid.UUID{},
		catalogTags:       map[uuid.UUID]catalog.Tag{},
		catalogActivities: map[uuid.UUID]catalog.Activity{},
		catalogLocations:  map[uuid.UUID]catalog.Location{},
		favorites:         map[pair]bool{},
		reviews:           map[uuid.UUID]*Review{},
		comments:          map[uuid.UUID]*Comment{},
	}
}

func (m *memDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memDB) nameTaken(row *ServiceRow) bool {
	for _, r := range m.rows {
		if r.ID != row.ID && r.MasterID == row.MasterID && r.Name == row.Name {
			return true
		}
	}
	return false
}

func (m *memDB) Insert(_ context.Context, row *ServiceRow) error {
	if m.nameTaken(row) {
		return ErrServiceNameTaken
	}
	row.ID = uuid.New()
	row.Created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cp := *row
	m.rows[row.ID] = &cp
	m.order = append(m.order, row.ID)
	return nil
}

func (m *memDB) RowForUpdate(_ context.Context, id uuid.UUID) (*ServiceRow, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memDB) Update(_ context.Context, row *ServiceRow) error {
	if m.nameTaken(row) {
		return ErrServiceNameTaken
	}
	cp := *row
	m.rows[row.ID] = &cp
	return nil
}

func (m *memDB) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	delete(m.activities, id)
	delete(m.tags, id)
	for k := range m.favorites {
		if k.b == id {
			delete(m.favorites, k)
		}
	}
	return nil
}

func (m *memDB) MasterOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r, ok := m.rows[id]
	if !ok {
		return uuid.Nil, ErrServiceNotFound
	}
	return r.MasterID, nil
}

func (m *memDB) SetActivities(_ context.Context, serviceID uuid.UUID, ids []uuid.UUID) error {
	m.activities[serviceID] = slices.Clone(ids)
	return nil
}

func (m *memDB) SetTags(_ context.Context, serviceID uuid.UUID, ids []uuid.UUID) error {
	m.tags[serviceID] = slices.Clone(ids)
	return nil
}

func (m *memDB) SetLocations(_ context.Context, serviceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	previous := m.locations[serviceID]
	if len(ids) == 0 {
		delete(m.locations, serviceID)
	} else {
		m.locations[serviceID] = slices.Clone(ids)
	}
	return previous, nil
}

func (m *memDB) Get(_ context.Context, id, viewer uuid.UUID) (*Service, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	svc := &Service{
		ID:                    r.ID,
		Name:                  r.Name,
		Description:           r.Description,
		Master:                user.MasterSummary{ID: r.MasterID, Username: m.usernames[r.MasterID]},
		Activities:            []catalog.Activity{},
		Tags:                  []catalog.Tag{},
		Locations:             []catalog.Location{},
		Image:                 r.Image,
		AboutMaster:           r.AboutMaster,
		SiteAddress:           r.SiteAddress,
		PhoneNumber:           r.PhoneNumber,
		SocialNetworkContacts: r.SocialNetworkContacts,
		IsFavorited:           m.favorites[pair{viewer, id}],
		Created:               Date(r.Created),
	}
	for _, a := range m.activities[id] {
		svc.Activities = append(svc.Activities, m.catalogActivities[a])
	}
	for _, t := range m.tags[id] {
		svc.Tags = append(svc.Tags, m.catalogTags[t])
	}
	for _, l := range m.locations[id] {
		svc.Locations = append(svc.Locations, m.catalogLocations[l])
	}

	var sum, n int
	for _, rev := range m.reviews {
		if rev.ServiceID == id {
			sum += rev.Score
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		svc.Rating = &avg
	}
	return svc, nil
}

func (m *memDB) List(ctx context.Context, f ServiceFilter, viewer uuid.UUID, _ pagination.Params) ([]Service, int, error) {
	var out []Service
	for _, id := range m.order {
		r, ok := m.rows[id]
		if !ok {
			continue
		}
		if f.MasterID != uuid.Nil && r.MasterID != f.MasterID {
			continue
		}
		if f.FavoritedBy != uuid.Nil && !m.favorites[pair{f.FavoritedBy, id}] {
			continue
		}
		svc, err := m.Get(ctx, id, viewer)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *svc)
	}
	return out, len(out), nil
}

func (m *memDB) TagsByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Tag, error) {
	var out []catalog.Tag
	for _, id := range ids {
		if t, ok := m.catalogTags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memDB) ActivitiesByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Activity, error) {
	var out []catalog.Activity
	for _, id := range ids {
		if a, ok := m.catalogActivities[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memDB) CreateLocations(_ context.Context, in []catalog.LocationInput) ([]catalog.Location, error) {
	out := make([]catalog.Location, 0, len(in))
	for _, l := range in {
		loc := catalog.Location{
			ID:           uuid.New(),
			Country:      l.Country,
			City:         l.City,
			Street:       l.Street,
			HouseNumber:  l.HouseNumber,
			Building:     l.Building,
			OfficeNumber: l.OfficeNumber,
		}
		m.catalogLocations[loc.ID] = loc
		out = append(out, loc)
	}
	return out, nil
}

func (m *memDB) DeleteLocations(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(m.catalogLocations, id)
	}
	return nil
}

// favoriteLinker adapts the favorites set to relation.Linker.
type favoriteLinker struct{ m *memDB }

func (f favoriteLinker) Link(_ context.Context, userID, serviceID uuid.UUID) (bool, error) {
	k := pair{userID, serviceID}
	if f.m.favorites[k] {
		return false, nil
	}
	f.m.favorites[k] = true
	return true, nil
}

func (f favoriteLinker) Unlink(_ context.Context, userID, serviceID uuid.UUID) (bool, error) {
	k := pair{userID, serviceID}
	if !f.m.favorites[k] {
		return false, nil
	}
	delete(f.m.favorites, k)
	return true, nil
}

func (m *memDB) CreateReview(_ context.Context, r *Review) error {
	for _, existing := range m.reviews {
		if existing.ServiceID == r.ServiceID && existing.AuthorID == r.AuthorID {
			return ErrOneReview
		}
	}
	r.ID = uuid.New()
	r.PubDate = time.Now()
	r.Author = m.usernames[r.AuthorID]
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *memDB) GetReview(_ context.Context, serviceID, reviewID uuid.UUID) (*Review, error) {
	r, ok := m.reviews[reviewID]
	if !ok || r.ServiceID != serviceID {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memDB) ListReviews(_ context.Context, serviceID uuid.UUID, _ pagination.Params) ([]Review, int, error) {
	var out []Review
	for _, r := range m.reviews {
		if r.ServiceID == serviceID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (m *memDB) UpdateReview(_ context.Context, r *Review) error {
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *memDB) DeleteReview(_ context.Context, id uuid.UUID) error {
	delete(m.reviews, id)
	return nil
}

func (m *memDB) Summary(_ context.Context, serviceID uuid.UUID) (*ReviewSummary, error) {
	sum := &ReviewSummary{ServiceID: serviceID, ScoreCounts: map[int]int{}}
	for s := MinScore; s <= MaxScore; s++ {
		sum.ScoreCounts[s] = 0
	}
	total := 0
	for _, r := range m.reviews {
		if r.ServiceID == serviceID {
			sum.TotalReviews++
			sum.ScoreCounts[r.Score]++
			total += r.Score
		}
	}
	if sum.TotalReviews > 0 {
		avg := float64(total) / float64(sum.TotalReviews)
		sum.AverageScore = &avg
	}
	return sum, nil
}

func (m *memDB) CreateComment(_ context.Context, c *Comment) error {
	c.ID = uuid.New()
	c.PubDate = time.Now()
	c.Author = m.usernames[c.AuthorID]
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memDB) GetComment(_ context.Context, reviewID, commentID uuid.UUID) (*Comment, error) {
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memDB) ListComments(_ context.Context, reviewID uuid.UUID, _ pagination.Params) ([]Comment, int, error) {
	var out []Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memDB) UpdateComment(_ context.Context, c *Comment) error {
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memDB) DeleteComment(_ context.Context, id uuid.UUID) error {
	delete(m.comments, id)
	return nil
}
