package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned by write paths when the target row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidOrder is returned when a reorder request is not a permutation of the existing rows.
	ErrInvalidOrder = errors.New("order must list every existing id exactly once")
)

// orderedTable is a table whose rows carry a contiguous 1-based position,
// either across the whole table or within a parent (scope) column.
type orderedTable struct {
	name  string
	scope string
}

var (
	lessonOrder      = orderedTable{name: "course_lessons", scope: "course_id"}
	heroSlideOrder   = orderedTable{name: "hero_slides"}
	testimonialOrder = orderedTable{name: "testimonials"}
)

func (t orderedTable) filter() string {
	if t.scope == "" {
		return ""
	}
	return fmt.Sprintf("WHERE %s = $1", t.scope)
}

func (t orderedTable) args(scopeID string) []any {
	if t.scope == "" {
		return nil
	}
	return []any{scopeID}
}

// nextPosition returns the position a new row should take to land at the end.
func nextPosition(ctx context.Context, tx pgx.Tx, t orderedTable, scopeID string) (int, error) {
	q := fmt.Sprintf("SELECT COALESCE(MAX(position), 0) + 1 FROM %s %s", t.name, t.filter())
	var pos int
	if err := tx.QueryRow(ctx, q, t.args(scopeID)...).Scan(&pos); err != nil {
		return 0, fmt.Errorf("next position in %s: %w", t.name, err)
	}
	return pos, nil
}

// reorder rewrites positions so that ids[i] ends up at position i+1.
// The position unique constraints are deferred, so intermediate states may collide.
func reorder(ctx context.Context, tx pgx.Tx, t orderedTable, scopeID string, ids []string) error {
	lockQ := fmt.Sprintf("SELECT id FROM %s %s ORDER BY position FOR UPDATE", t.name, t.filter())
	rows, err := tx.Query(ctx, lockQ, t.args(scopeID)...)
	if err != nil {
		return fmt.Errorf("lock %s rows: %w", t.name, err)
	}
	current, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("collect %s ids: %w", t.name, err)
	}
	if err := validatePermutation(current, ids); err != nil {
		return err
	}

	updQ := fmt.Sprintf(`
		UPDATE %s AS t
		SET position = o.ord::int, updated_at = NOW()
		FROM unnest($1::text[]) WITH ORDINALITY AS o(id, ord)
		WHERE t.id = o.id::uuid AND t.position <> o.ord::int
	`, t.name)
	if _, err := tx.Exec(ctx, updQ, ids); err != nil {
		return fmt.Errorf("rewrite %s positions: %w", t.name, err)
	}
	return nil
}

// compact closes the gaps left behind by a delete.
func compact(ctx context.Context, tx pgx.Tx, t orderedTable, scopeID string) error {
	q := fmt.Sprintf(`
		UPDATE %[1]s AS t
		SET position = o.rn, updated_at = NOW()
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position)::int AS rn
			FROM %[1]s %[2]s
		) o
		WHERE t.id = o.id AND t.position <> o.rn
	`, t.name, t.filter())
	if _, err := tx.Exec(ctx, q, t.args(scopeID)...); err != nil {
		return fmt.Errorf("compact %s positions: %w", t.name, err)
	}
	return nil
}

func validatePermutation(current, ordered []string) error {
	if len(current) != len(ordered) {
		return ErrInvalidOrder
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range ordered {
		used, ok := seen[id]
		if !ok || used {
			return ErrInvalidOrder
		}
		seen[id] = true
	}
	return nil
}
