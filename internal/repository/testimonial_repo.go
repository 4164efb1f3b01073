package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestimonialRepository defines data access for testimonials
type TestimonialRepository interface {
	List(ctx context.Context, publishedOnly bool) ([]model.Testimonial, error)
	GetByID(ctx context.Context, testimonialID string) (*model.Testimonial, error)
	Create(ctx context.Context, t *model.Testimonial) error
	Update(ctx context.Context, t *model.Testimonial) error
	Delete(ctx context.Context, testimonialID string) error
	Reorder(ctx context.Context, testimonialIDs []string) error
}

type testimonialRepo struct {
	pool *pgxpool.Pool
}

// NewTestimonialRepo creates a new TestimonialRepository
func NewTestimonialRepo(pool *pgxpool.Pool) TestimonialRepository {
	return &testimonialRepo{pool: pool}
}

const testimonialColumns = `id, author_name, author_title, avatar_path, quote, rating, position, published, created_at, updated_at`

func scanTestimonial(row pgx.Row, t *model.Testimonial) error {
	return row.Scan(&t.ID, &t.AuthorName, &t.AuthorTitle, &t.AvatarPath, &t.Quote, &t.Rating,
		&t.Position, &t.Published, &t.CreatedAt, &t.UpdatedAt)
}

func (r *testimonialRepo) List(ctx context.Context, publishedOnly bool) ([]model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY position`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	items := []model.Testimonial{}
	for rows.Next() {
		var t model.Testimonial
		if err := scanTestimonial(rows, &t); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate testimonials: %w", err)
	}
	return items, nil
}

func (r *testimonialRepo) GetByID(ctx context.Context, testimonialID string) (*model.Testimonial, error) {
	var t model.Testimonial
	err := scanTestimonial(r.pool.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, testimonialID), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch testimonial %s: %w", testimonialID, err)
	}
	return &t, nil
}

func (r *testimonialRepo) Create(ctx context.Context, t *model.Testimonial) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE testimonials IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock testimonials: %w", err)
		}
		pos, err := nextPosition(ctx, tx, testimonialOrder, "")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO testimonials (author_name, author_title, avatar_path, quote, rating, position, published)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + testimonialColumns
		row := tx.QueryRow(ctx, query, t.AuthorName, t.AuthorTitle, t.AvatarPath, t.Quote, t.Rating, pos, t.Published)
		if err := scanTestimonial(row, t); err != nil {
			return fmt.Errorf("insert testimonial: %w", err)
		}
		return nil
	})
}

func (r *testimonialRepo) Update(ctx context.Context, t *model.Testimonial) error {
	query := `
		UPDATE testimonials
		SET author_name = $1, author_title = $2, avatar_path = $3, quote = $4, rating = $5, published = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + testimonialColumns
	row := r.pool.QueryRow(ctx, query, t.AuthorName, t.AuthorTitle, t.AvatarPath, t.Quote, t.Rating, t.Published, t.ID)
	if err := scanTestimonial(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update testimonial %s: %w", t.ID, err)
	}
	return nil
}

func (r *testimonialRepo) Delete(ctx context.Context, testimonialID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, testimonialID)
		if err != nil {
			return fmt.Errorf("delete testimonial %s: %w", testimonialID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return compact(ctx, tx, testimonialOrder, "")
	})
}

func (r *testimonialRepo) Reorder(ctx context.Context, testimonialIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return reorder(ctx, tx, testimonialOrder, "", testimonialIDs)
	})
}
