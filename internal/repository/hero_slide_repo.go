package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HeroSlideRepository defines data access for the landing page carousel
type HeroSlideRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.HeroSlide, error)
	GetByID(ctx context.Context, slideID string) (*model.HeroSlide, error)
	Create(ctx context.Context, s *model.HeroSlide) error
	Update(ctx context.Context, s *model.HeroSlide) error
	Delete(ctx context.Context, slideID string) error
	Reorder(ctx context.Context, slideIDs []string) error
}

type heroSlideRepo struct {
	pool *pgxpool.Pool
}

// NewHeroSlideRepo creates a new HeroSlideRepository
func NewHeroSlideRepo(pool *pgxpool.Pool) HeroSlideRepository {
	return &heroSlideRepo{pool: pool}
}

const heroSlideColumns = `id, title, subtitle, image_path, cta_label, cta_url, position, active, created_at, updated_at`

func scanHeroSlide(row pgx.Row, s *model.HeroSlide) error {
	return row.Scan(&s.ID, &s.Title, &s.Subtitle, &s.ImagePath, &s.CTALabel, &s.CTAURL,
		&s.Position, &s.Active, &s.CreatedAt, &s.UpdatedAt)
}

func (r *heroSlideRepo) List(ctx context.Context, activeOnly bool) ([]model.HeroSlide, error) {
	query := `SELECT ` + heroSlideColumns + ` FROM hero_slides`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY position`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hero slides: %w", err)
	}
	defer rows.Close()

	slides := []model.HeroSlide{}
	for rows.Next() {
		var s model.HeroSlide
		if err := scanHeroSlide(rows, &s); err != nil {
			return nil, fmt.Errorf("scan hero slide: %w", err)
		}
		slides = append(slides, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hero slides: %w", err)
	}
	return slides, nil
}

func (r *heroSlideRepo) GetByID(ctx context.Context, slideID string) (*model.HeroSlide, error) {
	var s model.HeroSlide
	err := scanHeroSlide(r.pool.QueryRow(ctx, `SELECT `+heroSlideColumns+` FROM hero_slides WHERE id = $1`, slideID), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch hero slide %s: %w", slideID, err)
	}
	return &s, nil
}

func (r *heroSlideRepo) Create(ctx context.Context, s *model.HeroSlide) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE hero_slides IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock hero slides: %w", err)
		}
		pos, err := nextPosition(ctx, tx, heroSlideOrder, "")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO hero_slides (title, subtitle, image_path, cta_label, cta_url, position, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + heroSlideColumns
		row := tx.QueryRow(ctx, query, s.Title, s.Subtitle, s.ImagePath, s.CTALabel, s.CTAURL, pos, s.Active)
		if err := scanHeroSlide(row, s); err != nil {
			return fmt.Errorf("insert hero slide: %w", err)
		}
		return nil
	})
}

func (r *heroSlideRepo) Update(ctx context.Context, s *model.HeroSlide) error {
	query := `
		UPDATE hero_slides
		SET title = $1, subtitle = $2, image_path = $3, cta_label = $4, cta_url = $5, active = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + heroSlideColumns
	row := r.pool.QueryRow(ctx, query, s.Title, s.Subtitle, s.ImagePath, s.CTALabel, s.CTAURL, s.Active, s.ID)
	if err := scanHeroSlide(row, s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update hero slide %s: %w", s.ID, err)
	}
	return nil
}

func (r *heroSlideRepo) Delete(ctx context.Context, slideID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM hero_slides WHERE id = $1`, slideID)
		if err != nil {
			return fmt.Errorf("delete hero slide %s: %w", slideID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return compact(ctx, tx, heroSlideOrder, "")
	})
}

func (r *heroSlideRepo) Reorder(ctx context.Context, slideIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return reorder(ctx, tx, heroSlideOrder, "", slideIDs)
	})
}
