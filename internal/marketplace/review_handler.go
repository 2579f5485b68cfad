package marketplace

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/pagination"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,min=1,max=10"`
}

type PatchReviewRequest struct {
	Text  *string `json:"text" validate:"omitnil,min=1"`
	Score *int    `json:"score" validate:"omitnil,min=1,max=10"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func pathIDs(c echo.Context, names ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := uuid.Parse(c.Param(name))
		if err != nil {
			switch name {
			case "id":
				return nil, ErrServiceNotFound
			case "review_id":
				return nil, ErrReviewNotFound
			default:
				return nil, ErrCommentNotFound
			}
		}
		ids[i] = id
	}
	return ids, nil
}

// GET /services/:id/reviews
func (h *Handler) ListReviews(c echo.Context) error {
	ids, err := pathIDs(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p := pagination.FromRequest(c)
	list, total, err := h.reviews.List(c.Request().Context(), ids[0], p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(list, total, p))
}

// GET /services/:id/reviews/summary
func (h *Handler) ReviewSummary(c echo.Context) error {
	ids, err := pathIDs(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	sum, err := h.reviews.Summary(c.Request().Context(), ids[0])
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// POST /services/:id/reviews
func (h *Handler) CreateReview(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceReview, access.ActionCreate, uuid.Nil); err != nil {
		return apperr.Respond(c, err)
	}
	ids, err := pathIDs(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(CreateReviewRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	rev, err := h.reviews.Create(c.Request().Context(), caller, ids[0], req.Text, req.Score)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, rev)
}

// GET /services/:id/reviews/:review_id
func (h *Handler) GetReview(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	rev, err := h.reviews.Get(c.Request().Context(), ids[0], ids[1])
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rev)
}

// PATCH /services/:id/reviews/:review_id
func (h *Handler) UpdateReview(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(PatchReviewRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	rev, err := h.reviews.Update(c.Request().Context(), middleware.CallerFrom(c), ids[0], ids[1],
		ReviewPatch{Text: req.Text, Score: req.Score})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rev)
}

// DELETE /services/:id/reviews/:review_id
func (h *Handler) DeleteReview(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.reviews.Delete(c.Request().Context(), middleware.CallerFrom(c), ids[0], ids[1]); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /services/:id/reviews/:review_id/comments
func (h *Handler) ListComments(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p := pagination.FromRequest(c)
	list, total, err := h.reviews.ListComments(c.Request().Context(), ids[0], ids[1], p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.New(list, total, p))
}

// POST /services/:id/reviews/:review_id/comments
func (h *Handler) CreateComment(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := access.Check(caller, access.ResourceComment, access.ActionCreate, uuid.Nil); err != nil {
		return apperr.Respond(c, err)
	}
	ids, err := pathIDs(c, "id", "review_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(CommentRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	cm, err := h.reviews.CreateComment(c.Request().Context(), caller, ids[0], ids[1], req.Text)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, cm)
}

// GET /services/:id/reviews/:review_id/comments/:comment_id
func (h *Handler) GetComment(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id", "comment_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	cm, err := h.reviews.GetComment(c.Request().Context(), ids[0], ids[1], ids[2])
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, cm)
}

// PATCH /services/:id/reviews/:review_id/comments/:comment_id
func (h *Handler) UpdateComment(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id", "comment_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	req := new(CommentRequest)
	if err := validation.Bind(c, req); err != nil {
		return apperr.Respond(c, err)
	}
	cm, err := h.reviews.UpdateComment(c.Request().Context(), middleware.CallerFrom(c), ids[0], ids[1], ids[2], req.Text)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, cm)
}

// DELETE /services/:id/reviews/:review_id/comments/:comment_id
func (h *Handler) DeleteComment(c echo.Context) error {
	ids, err := pathIDs(c, "id", "review_id", "comment_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.reviews.DeleteComment(c.Request().Context(), middleware.CallerFrom(c), ids[0], ids[1], ids[2]); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
