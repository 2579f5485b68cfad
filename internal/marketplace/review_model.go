package marketplace

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/artmaster/internal/apperr"
)

var (
	ErrReviewNotFound  = apperr.NotFound("review not found")
	ErrCommentNotFound = apperr.NotFound("comment not found")
	ErrSelfReview      = apperr.Validation("cannot review your own service")
	ErrOneReview       = apperr.Conflict("only one review per service is allowed")
	ErrScoreRange      = apperr.Validation("score: must be between 1 and 10")
)

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID        uuid.UUID `json:"id"`
	ServiceID uuid.UUID `json:"service"`
	AuthorID  uuid.UUID `json:"author_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	PubDate   time.Time `json:"pub_date"`
}

type Comment struct {
	ID       uuid.UUID `json:"id"`
	ReviewID uuid.UUID `json:"-"`
	Review   *Review   `json:"review,omitempty"`
	AuthorID uuid.UUID `json:"author_id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}

// ReviewSummary aggregates the reviews of one service.
type ReviewSummary struct {
	ServiceID    uuid.UUID   `json:"service_id"`
	TotalReviews int         `json:"total_reviews"`
	AverageScore *float64    `json:"average_score"`
	ScoreCounts  map[int]int `json:"score_counts"`
}

type ReviewPatch struct {
	Text  *string
	Score *int
}
