package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LessonRepository defines data access for course_lessons
type LessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.Lesson, error)
	GetByID(ctx context.Context, lessonID string) (*model.Lesson, error)
	// Create appends the lesson after the last lesson of its course
	Create(ctx context.Context, l *model.Lesson) error
	Update(ctx context.Context, l *model.Lesson) error
	UpdateVideo(ctx context.Context, lessonID string, v model.LessonVideo) error
	// Delete removes the lesson and closes the gap in the course ordering
	Delete(ctx context.Context, lessonID string) error
	// Reorder sets positions so that lessonIDs[i] is at position i+1
	Reorder(ctx context.Context, courseID string, lessonIDs []string) error
}

type lessonRepo struct {
	pool *pgxpool.Pool
}

// NewLessonRepo creates a new LessonRepository
func NewLessonRepo(pool *pgxpool.Pool) LessonRepository {
	return &lessonRepo{pool: pool}
}

const lessonColumns = `id, course_id, title, description, position, is_preview, video_provider,
	video_upload_id, video_asset_id, video_playback_url, video_status, duration_seconds, created_at, updated_at`

func scanLesson(row pgx.Row, l *model.Lesson) error {
	return row.Scan(
		&l.ID,
		&l.CourseID,
		&l.Title,
		&l.Description,
		&l.Position,
		&l.IsPreview,
		&l.VideoProvider,
		&l.VideoUploadID,
		&l.VideoAssetID,
		&l.VideoPlaybackURL,
		&l.VideoStatus,
		&l.DurationSeconds,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func (r *lessonRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lessonColumns+` FROM course_lessons WHERE course_id = $1 ORDER BY position`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons for course %s: %w", courseID, err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := scanLesson(rows, &l); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return lessons, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var l model.Lesson
	err := scanLesson(r.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM course_lessons WHERE id = $1`, lessonID), &l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch lesson %s: %w", lessonID, err)
	}
	return &l, nil
}

func (r *lessonRepo) Create(ctx context.Context, l *model.Lesson) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialise appends per course so two creates cannot pick the same position.
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`, l.CourseID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock course %s: %w", l.CourseID, err)
		}
		pos, err := nextPosition(ctx, tx, lessonOrder, l.CourseID)
		if err != nil {
			return err
		}
		query := `
			INSERT INTO course_lessons (course_id, title, description, position, is_preview)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + lessonColumns
		if err := scanLesson(tx.QueryRow(ctx, query, l.CourseID, l.Title, l.Description, pos, l.IsPreview), l); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
		return nil
	})
}

func (r *lessonRepo) Update(ctx context.Context, l *model.Lesson) error {
	query := `
		UPDATE course_lessons
		SET title = $1, description = $2, is_preview = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + lessonColumns
	if err := scanLesson(r.pool.QueryRow(ctx, query, l.Title, l.Description, l.IsPreview, l.ID), l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update lesson %s: %w", l.ID, err)
	}
	return nil
}

func (r *lessonRepo) UpdateVideo(ctx context.Context, lessonID string, v model.LessonVideo) error {
	query := `
		UPDATE course_lessons
		SET video_provider = $1, video_upload_id = $2, video_asset_id = $3, video_playback_url = $4,
			video_status = $5, duration_seconds = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.pool.Exec(ctx, query, v.Provider, v.UploadID, v.AssetID, v.PlaybackURL, v.Status, v.DurationSeconds, lessonID)
	if err != nil {
		return fmt.Errorf("update video of lesson %s: %w", lessonID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lessonRepo) Delete(ctx context.Context, lessonID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var courseID string
		err := tx.QueryRow(ctx, `DELETE FROM course_lessons WHERE id = $1 RETURNING course_id`, lessonID).Scan(&courseID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete lesson %s: %w", lessonID, err)
		}
		return compact(ctx, tx, lessonOrder, courseID)
	})
}

func (r *lessonRepo) Reorder(ctx context.Context, courseID string, lessonIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return reorder(ctx, tx, lessonOrder, courseID, lessonIDs)
	})
}
