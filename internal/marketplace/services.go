package marketplace

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/phone"
	"github.com/sudo-init-do/artmaster/internal/relation"
)

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogRefs is what services need from the catalog store.
type CatalogRefs interface {
	TagsByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Tag, error)
	ActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Activity, error)
	CreateLocations(ctx context.Context, in []catalog.LocationInput) ([]catalog.Location, error)
	DeleteLocations(ctx context.Context, ids []uuid.UUID) error
}

// Services holds the write rules for service listings and favorites.
type Services struct {
	store       ServiceStore
	refs        CatalogRefs
	tx          TxRunner
	favorites   relation.Linker
	phoneRegion string
}

func NewServices(store ServiceStore, refs CatalogRefs, tx TxRunner, favorites relation.Linker, phoneRegion string) *Services {
	return &Services{store: store, refs: refs, tx: tx, favorites: favorites, phoneRegion: phoneRegion}
}

func (s *Services) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*Service, error) {
	return s.store.Get(ctx, id, caller.ID)
}

// List applies f for caller. The favorited-only filter is dropped for
// anonymous callers.
func (s *Services) List(ctx context.Context, caller access.Caller, f ServiceFilter, favoritedOnly bool, p pagination.Params) ([]Service, int, error) {
	if favoritedOnly && caller.Authenticated() {
		f.FavoritedBy = caller.ID
	}
	return s.store.List(ctx, f, caller.ID, p)
}

func (s *Services) Create(ctx context.Context, caller access.Caller, in ServiceInput) (*Service, error) {
	if err := access.Check(caller, access.ResourceService, access.ActionCreate, uuid.Nil); err != nil {
		return nil, err
	}
	normalized, err := phone.Normalize(in.PhoneNumber, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	row := &ServiceRow{
		MasterID:              caller.ID,
		Name:                  in.Name,
		Description:           in.Description,
		Image:                 in.Image,
		AboutMaster:           in.AboutMaster,
		SiteAddress:           in.SiteAddress,
		PhoneNumber:           normalized,
		SocialNetworkContacts: in.SocialNetworkContacts,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkRelations(ctx, &in.Activities, &in.Tags, &in.Locations); err != nil {
			return err
		}
		if err := s.store.Insert(ctx, row); err != nil {
			return err
		}
		return s.writeRelations(ctx, row.ID, &in.Activities, &in.Tags, &in.Locations)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, row.ID, caller.ID)
}

// Replace overwrites every field and all three relation sets.
func (s *Services) Replace(ctx context.Context, caller access.Caller, id uuid.UUID, in ServiceInput) (*Service, error) {
	normalized, err := phone.Normalize(in.PhoneNumber, s.phoneRegion)
	if err != nil {
		return nil, err
	}
	apply := func(row *ServiceRow) error {
		row.Name = in.Name
		row.Description = in.Description
		row.Image = in.Image
		row.AboutMaster = in.AboutMaster
		row.SiteAddress = in.SiteAddress
		row.PhoneNumber = normalized
		row.SocialNetworkContacts = in.SocialNetworkContacts
		return nil
	}
	return s.update(ctx, caller, id, apply, &in.Activities, &in.Tags, &in.Locations)
}

// Patch changes only the fields present in p. A present relation set is
// replaced and validated like on create.
func (s *Services) Patch(ctx context.Context, caller access.Caller, id uuid.UUID, p ServicePatch) (*Service, error) {
	apply := func(row *ServiceRow) error {
		setIf(&row.Name, p.Name)
		setIf(&row.Description, p.Description)
		setIf(&row.Image, p.Image)
		if p.AboutMaster != nil {
			row.AboutMaster = p.AboutMaster
		}
		if p.SiteAddress != nil {
			row.SiteAddress = p.SiteAddress
		}
		if p.SocialNetworkContacts != nil {
			row.SocialNetworkContacts = p.SocialNetworkContacts
		}
		if p.PhoneNumber != nil {
			normalized, err := phone.Normalize(*p.PhoneNumber, s.phoneRegion)
			if err != nil {
				return err
			}
			row.PhoneNumber = normalized
		}
		return nil
	}
	return s.update(ctx, caller, id, apply, p.Activities, p.Tags, p.Locations)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *Services) update(
	ctx context.Context, caller access.Caller, id uuid.UUID, apply func(*ServiceRow) error,
	activities, tags *[]uuid.UUID, locations *[]catalog.LocationInput,
) (*Service, error) {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := s.store.RowForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := access.Check(caller, access.ResourceService, access.ActionUpdate, row.MasterID); err != nil {
			return err
		}
		if err := apply(row); err != nil {
			return err
		}
		if err := s.checkRelations(ctx, activities, tags, locations); err != nil {
			return err
		}
		if err := s.store.Update(ctx, row); err != nil {
			return err
		}
		return s.writeRelations(ctx, id, activities, tags, locations)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id, caller.ID)
}

func (s *Services) Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := s.store.RowForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := access.Check(caller, access.ResourceService, access.ActionDelete, row.MasterID); err != nil {
			return err
		}
		previous, err := s.store.SetLocations(ctx, id, nil)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
		return s.refs.DeleteLocations(ctx, previous)
	})
}

// checkRelations validates every relation set that is present (non-nil).
func (s *Services) checkRelations(ctx context.Context, activities, tags *[]uuid.UUID, locations *[]catalog.LocationInput) error {
	if activities != nil {
		if err := checkIDs(*activities); err != nil {
			return err
		}
		found, err := s.refs.ActivitiesByIDs(ctx, *activities)
		if err != nil {
			return err
		}
		if len(found) != len(*activities) {
			return ErrNonexistentElement
		}
	}
	if tags != nil {
		if err := checkIDs(*tags); err != nil {
			return err
		}
		found, err := s.refs.TagsByIDs(ctx, *tags)
		if err != nil {
			return err
		}
		if len(found) != len(*tags) {
			return ErrNonexistentElement
		}
	}
	if locations != nil && len(*locations) == 0 {
		return ErrEmptyRelation
	}
	return nil
}

// checkIDs rejects empty sets and repeated ids.
func checkIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return ErrEmptyRelation
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return ErrDuplicateElement
		}
		seen[id] = struct{}{}
	}
	return nil
}

// writeRelations clears and resets every present relation set. Locations are
// created fresh and the ones they replace are deleted.
func (s *Services) writeRelations(ctx context.Context, id uuid.UUID, activities, tags *[]uuid.UUID, locations *[]catalog.LocationInput) error {
	if activities != nil {
		if err := s.store.SetActivities(ctx, id, *activities); err != nil {
			return err
		}
	}
	if tags != nil {
		if err := s.store.SetTags(ctx, id, *tags); err != nil {
			return err
		}
	}
	if locations != nil {
		created, err := s.refs.CreateLocations(ctx, *locations)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(created))
		for i, l := range created {
			ids[i] = l.ID
		}
		previous, err := s.store.SetLocations(ctx, id, ids)
		if err != nil {
			return err
		}
		if err := s.refs.DeleteLocations(ctx, previous); err != nil {
			return err
		}
	}
	return nil
}

// AddFavorite marks the service as a favorite of caller.
func (s *Services) AddFavorite(ctx context.Context, caller access.Caller, id uuid.UUID) (*Brief, error) {
	if err := access.Check(caller, access.ResourceFavorite, access.ActionCreate, caller.ID); err != nil {
		return nil, err
	}
	svc, err := s.store.Get(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := relation.Add(ctx, s.favorites, caller.ID, id); err != nil {
		if errors.Is(err, relation.ErrMissingTarget) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	b := svc.Brief()
	return &b, nil
}

func (s *Services) RemoveFavorite(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	if err := access.Check(caller, access.ResourceFavorite, access.ActionDelete, caller.ID); err != nil {
		return err
	}
	if _, err := s.store.MasterOf(ctx, id); err != nil {
		return err
	}
	return relation.Remove(ctx, s.favorites, caller.ID, id)
}
