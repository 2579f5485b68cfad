// Package relation implements create-if-absent / delete-if-present toggles
// over two-column join tables such as favorites and subscriptions.
package relation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/db"
)

// Linker inserts or removes one (owner, target) row and reports whether a row
// actually changed.
type Linker interface {
	Link(ctx context.Context, owner, target uuid.UUID) (bool, error)
	Unlink(ctx context.Context, owner, target uuid.UUID) (bool, error)
}

// ErrMissingTarget means the target row disappeared before the link was
// written. Callers translate it to their own not-found error.
var ErrMissingTarget = apperr.NotFound("not found: related object does not exist")

// Add creates the relation or fails with apperr.ErrDuplicateAdd.
func Add(ctx context.Context, l Linker, owner, target uuid.UUID) error {
	created, err := l.Link(ctx, owner, target)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return ErrMissingTarget
		}
		return err
	}
	if !created {
		return apperr.ErrDuplicateAdd
	}
	return nil
}

// Remove deletes the relation or fails with apperr.ErrDeleteNonexisted.
func Remove(ctx context.Context, l Linker, owner, target uuid.UUID) error {
	deleted, err := l.Unlink(ctx, owner, target)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.ErrDeleteNonexisted
	}
	return nil
}

// Table is a Linker backed by a join table with a unique (owner, target) constraint.
type Table struct {
	pool      *pgxpool.Pool
	name      string
	ownerCol  string
	targetCol string
}

func NewTable(pool *pgxpool.Pool, name, ownerCol, targetCol string) *Table {
	return &Table{pool: pool, name: name, ownerCol: ownerCol, targetCol: targetCol}
}

func (t *Table) Link(ctx context.Context, owner, target uuid.UUID) (bool, error) {
	tag, err := db.Conn(ctx, t.pool).Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		t.name, t.ownerCol, t.targetCol,
	), owner, target)
	if err != nil {
		return false, fmt.Errorf("link %s: %w", t.name, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *Table) Unlink(ctx context.Context, owner, target uuid.UUID) (bool, error) {
	tag, err := db.Conn(ctx, t.pool).Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		t.name, t.ownerCol, t.targetCol,
	), owner, target)
	if err != nil {
		return false, fmt.Errorf("unlink %s: %w", t.name, err)
	}
	return tag.RowsAffected() > 0, nil
}
