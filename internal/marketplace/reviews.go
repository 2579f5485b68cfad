package marketplace

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/db"
	"github.com/sudo-init-do/artmaster/internal/pagination"
)

// ServiceOwners resolves the master of a service.
type ServiceOwners interface {
	MasterOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Reviews holds the rules for reviews and their comments.
type Reviews struct {
	store    ReviewStore
	services ServiceOwners
}

func NewReviews(store ReviewStore, services ServiceOwners) *Reviews {
	return &Reviews{store: store, services: services}
}

func (r *Reviews) List(ctx context.Context, serviceID uuid.UUID, p pagination.Params) ([]Review, int, error) {
	if _, err := r.services.MasterOf(ctx, serviceID); err != nil {
		return nil, 0, err
	}
	return r.store.ListReviews(ctx, serviceID, p)
}

func (r *Reviews) Summary(ctx context.Context, serviceID uuid.UUID) (*ReviewSummary, error) {
	if _, err := r.services.MasterOf(ctx, serviceID); err != nil {
		return nil, err
	}
	return r.store.Summary(ctx, serviceID)
}

// Create adds caller's review. The service's master may not review it, and
// the one-review-per-author rule is enforced by the store's unique constraint.
func (r *Reviews) Create(ctx context.Context, caller access.Caller, serviceID uuid.UUID, text string, score int) (*Review, error) {
	if err := access.Check(caller, access.ResourceReview, access.ActionCreate, uuid.Nil); err != nil {
		return nil, err
	}
	if score < MinScore || score > MaxScore {
		return nil, ErrScoreRange
	}
	master, err := r.services.MasterOf(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if master == caller.ID {
		return nil, ErrSelfReview
	}

	rev := &Review{ServiceID: serviceID, AuthorID: caller.ID, Text: text, Score: score}
	if err := r.store.CreateReview(ctx, rev); err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (r *Reviews) Get(ctx context.Context, serviceID, reviewID uuid.UUID) (*Review, error) {
	return r.store.GetReview(ctx, serviceID, reviewID)
}

func (r *Reviews) Update(ctx context.Context, caller access.Caller, serviceID, reviewID uuid.UUID, p ReviewPatch) (*Review, error) {
	rev, err := r.store.GetReview(ctx, serviceID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, access.ResourceReview, access.ActionUpdate, rev.AuthorID); err != nil {
		return nil, err
	}
	if p.Text != nil {
		rev.Text = *p.Text
	}
	if p.Score != nil {
		if *p.Score < MinScore || *p.Score > MaxScore {
			return nil, ErrScoreRange
		}
		rev.Score = *p.Score
	}
	if err := r.store.UpdateReview(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *Reviews) Delete(ctx context.Context, caller access.Caller, serviceID, reviewID uuid.UUID) error {
	rev, err := r.store.GetReview(ctx, serviceID, reviewID)
	if err != nil {
		return err
	}
	if err := access.Check(caller, access.ResourceReview, access.ActionDelete, rev.AuthorID); err != nil {
		return err
	}
	return r.store.DeleteReview(ctx, rev.ID)
}

func (r *Reviews) ListComments(ctx context.Context, serviceID, reviewID uuid.UUID, p pagination.Params) ([]Comment, int, error) {
	rev, err := r.store.GetReview(ctx, serviceID, reviewID)
	if err != nil {
		return nil, 0, err
	}
	comments, total, err := r.store.ListComments(ctx, rev.ID, p)
	if err != nil {
		return nil, 0, err
	}
	for i := range comments {
		comments[i].Review = rev
	}
	return comments, total, nil
}

func (r *Reviews) CreateComment(ctx context.Context, caller access.Caller, serviceID, reviewID uuid.UUID, text string) (*Comment, error) {
	if err := access.Check(caller, access.ResourceComment, access.ActionCreate, uuid.Nil); err != nil {
		return nil, err
	}
	rev, err := r.store.GetReview(ctx, serviceID, reviewID)
	if err != nil {
		return nil, err
	}
	c := &Comment{ReviewID: rev.ID, AuthorID: caller.ID, Text: text}
	if err := r.store.CreateComment(ctx, c); err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	c.Review = rev
	return c, nil
}

func (r *Reviews) GetComment(ctx context.Context, serviceID, reviewID, commentID uuid.UUID) (*Comment, error) {
	rev, err := r.store.GetReview(ctx, serviceID, reviewID)
	if err != nil {
		return nil, err
	}
	c, err := r.store.GetComment(ctx, rev.ID, commentID)
	if err != nil {
		return nil, err
	}
	c.Review = rev
	return c, nil
}

func (r *Reviews) UpdateComment(ctx context.Context, caller access.Caller, serviceID, reviewID, commentID uuid.UUID, text string) (*Comment, error) {
	c, err := r.GetComment(ctx, serviceID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, access.ResourceComment, access.ActionUpdate, c.AuthorID); err != nil {
		return nil, err
	}
	c.Text = text
	if err := r.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Reviews) DeleteComment(ctx context.Context, caller access.Caller, serviceID, reviewID, commentID uuid.UUID) error {
	c, err := r.GetComment(ctx, serviceID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := access.Check(caller, access.ResourceComment, access.ActionDelete, c.AuthorID); err != nil {
		return err
	}
	return r.store.DeleteComment(ctx, c.ID)
}
