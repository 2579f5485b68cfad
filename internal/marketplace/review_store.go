package marketplace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/db"
	"github.com/sudo-init-do/artmaster/internal/pagination"
)

type ReviewStore interface {
	CreateReview(ctx context.Context, r *Review) error
	GetReview(ctx context.Context, serviceID, reviewID uuid.UUID) (*Review, error)
	ListReviews(ctx context.Context, serviceID uuid.UUID, p pagination.Params) ([]Review, int, error)
	UpdateReview(ctx context.Context, r *Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
	Summary(ctx context.Context, serviceID uuid.UUID) (*ReviewSummary, error)

	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, reviewID uuid.UUID, p pagination.Params) ([]Comment, int, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

type PGReviewStore struct {
	pool *pgxpool.Pool
}

func NewReviewStore(pool *pgxpool.Pool) *PGReviewStore {
	return &PGReviewStore{pool: pool}
}

func (s *PGReviewStore) CreateReview(ctx context.Context, r *Review) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO reviews (service_id, author_id, text, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, pub_date, (SELECT username FROM users WHERE id = $2)
	`, r.ServiceID, r.AuthorID, r.Text, r.Score).Scan(&r.ID, &r.PubDate, &r.Author)
	if err != nil {
		if name, ok := db.UniqueViolation(err); ok && name == "reviews_service_author_key" {
			return ErrOneReview
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

const reviewSelect = `
	SELECT r.id, r.service_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ServiceID, &r.AuthorID, &r.Author, &r.Text, &r.Score, &r.PubDate)
	return r, err
}

func (s *PGReviewStore) GetReview(ctx context.Context, serviceID, reviewID uuid.UUID) (*Review, error) {
	r, err := scanReview(db.Conn(ctx, s.pool).QueryRow(ctx,
		reviewSelect+` WHERE r.service_id = $1 AND r.id = $2`, serviceID, reviewID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &r, nil
}

func (s *PGReviewStore) ListReviews(ctx context.Context, serviceID uuid.UUID, p pagination.Params) ([]Review, int, error) {
	conn := db.Conn(ctx, s.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE service_id = $1`, serviceID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := conn.Query(ctx, reviewSelect+`
		WHERE r.service_id = $1
		ORDER BY r.pub_date DESC, r.id
		LIMIT $2 OFFSET $3
	`, serviceID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *PGReviewStore) UpdateReview(ctx context.Context, r *Review) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx,
		`UPDATE reviews SET text = $2, score = $3 WHERE id = $1`, r.ID, r.Text, r.Score)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *PGReviewStore) DeleteReview(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *PGReviewStore) Summary(ctx context.Context, serviceID uuid.UUID) (*ReviewSummary, error) {
	conn := db.Conn(ctx, s.pool)
	sum := &ReviewSummary{ServiceID: serviceID, ScoreCounts: make(map[int]int, MaxScore)}
	for score := MinScore; score <= MaxScore; score++ {
		sum.ScoreCounts[score] = 0
	}

	err := conn.QueryRow(ctx,
		`SELECT COUNT(*), AVG(score)::float8 FROM reviews WHERE service_id = $1`, serviceID,
	).Scan(&sum.TotalReviews, &sum.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT score, COUNT(*) FROM reviews WHERE service_id = $1 GROUP BY score`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("score counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score, n int
		if err := rows.Scan(&score, &n); err != nil {
			return nil, fmt.Errorf("scan score count: %w", err)
		}
		sum.ScoreCounts[score] = n
	}
	return sum, rows.Err()
}

func (s *PGReviewStore) CreateComment(ctx context.Context, c *Comment) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO comments (review_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, pub_date, (SELECT username FROM users WHERE id = $2)
	`, c.ReviewID, c.AuthorID, c.Text).Scan(&c.ID, &c.PubDate, &c.Author)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.pub_date
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Author, &c.Text, &c.PubDate)
	return c, err
}

func (s *PGReviewStore) GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error) {
	c, err := scanComment(db.Conn(ctx, s.pool).QueryRow(ctx,
		commentSelect+` WHERE c.review_id = $1 AND c.id = $2`, reviewID, commentID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *PGReviewStore) ListComments(ctx context.Context, reviewID uuid.UUID, p pagination.Params) ([]Comment, int, error) {
	conn := db.Conn(ctx, s.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE review_id = $1`, reviewID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, commentSelect+`
		WHERE c.review_id = $1
		ORDER BY c.pub_date DESC, c.id
		LIMIT $2 OFFSET $3
	`, reviewID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *PGReviewStore) UpdateComment(ctx context.Context, c *Comment) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `UPDATE comments SET text = $2 WHERE id = $1`, c.ID, c.Text)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (s *PGReviewStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}
