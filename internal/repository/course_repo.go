package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicateSlug is returned when another course already uses the slug.
	ErrDuplicateSlug = errors.New("course slug already exists")
	// ErrCourseInUse is returned when a course cannot be deleted because it has purchases.
	ErrCourseInUse = errors.New("course has purchases")
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	List(ctx context.Context, publishedOnly bool) ([]model.Course, error)
	// GetByID retrieves a course by its ID
	GetByID(ctx context.Context, courseID string) (*model.Course, error)
	// GetBySlug retrieves a course by its public slug
	GetBySlug(ctx context.Context, slug string) (*model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, courseID string) error
}

type courseRepo struct {
	pool *pgxpool.Pool
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(pool *pgxpool.Pool) CourseRepository {
	return &courseRepo{pool: pool}
}

const courseColumns = `id, slug, title, description, price_paise, currency, thumbnail_path, published, created_at, updated_at`

func scanCourse(row pgx.Row, c *model.Course) error {
	return row.Scan(
		&c.ID,
		&c.Slug,
		&c.Title,
		&c.Description,
		&c.PricePaise,
		&c.Currency,
		&c.ThumbnailPath,
		&c.Published,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// List returns courses newest first. Drafts are skipped when publishedOnly is set.
func (r *courseRepo) List(ctx context.Context, publishedOnly bool) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func (r *courseRepo) GetByID(ctx context.Context, courseID string) (*model.Course, error) {
	return r.getOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID)
}

func (r *courseRepo) GetBySlug(ctx context.Context, slug string) (*model.Course, error) {
	return r.getOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE slug = $1`, slug)
}

func (r *courseRepo) getOne(ctx context.Context, query string, arg string) (*model.Course, error) {
	var c model.Course
	if err := scanCourse(r.pool.QueryRow(ctx, query, arg), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch course %s: %w", arg, err)
	}
	return &c, nil
}

// Create inserts a new course and fills in the generated fields
func (r *courseRepo) Create(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (slug, title, description, price_paise, currency, thumbnail_path, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + courseColumns
	row := r.pool.QueryRow(ctx, query, c.Slug, c.Title, c.Description, c.PricePaise, c.Currency, c.ThumbnailPath, c.Published)
	if err := scanCourse(row, c); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a course
func (r *courseRepo) Update(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET slug = $1, title = $2, description = $3, price_paise = $4, currency = $5,
			thumbnail_path = $6, published = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING ` + courseColumns
	row := r.pool.QueryRow(ctx, query, c.Slug, c.Title, c.Description, c.PricePaise, c.Currency, c.ThumbnailPath, c.Published, c.ID)
	if err := scanCourse(row, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update course %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a course. Lessons go with it through the foreign key cascade,
// purchases block it.
func (r *courseRepo) Delete(ctx context.Context, courseID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCourseInUse
		}
		return fmt.Errorf("delete course %s: %w", courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
