package service

import (
	"context"
	"errors"

	"coursemart/internal/model"
	"coursemart/internal/repository"
	"coursemart/internal/video"

	"github.com/rs/zerolog"
)

// CourseService defines the admin operations on courses
type CourseService interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse retrieves a course by its ID, drafts included
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) error
	// UpdateCourse overwrites the course and removes the old thumbnail when it changed
	UpdateCourse(ctx context.Context, c *model.Course) error
	// DeleteCourse deletes a course without purchases, together with its lesson videos and thumbnail
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseService struct {
	courses   repository.CourseRepository
	lessons   repository.LessonRepository
	providers *video.Registry
	storage   StorageService
	logger    zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courses repository.CourseRepository,
	lessons repository.LessonRepository,
	providers *video.Registry,
	storage StorageService,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:   courses,
		lessons:   lessons,
		providers: providers,
		storage:   storage,
		logger:    logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.courses.List(ctx, false)
}

func (s *courseService) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

func (s *courseService) CreateCourse(ctx context.Context, c *model.Course) error {
	if err := s.courses.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return ErrDuplicateSlug
		}
		s.logger.Error().Err(err).Str("slug", c.Slug).Msg("Failed to create course")
		return err
	}
	s.logger.Info().Str("course_id", c.ID).Str("slug", c.Slug).Msg("Course created")
	return nil
}

func (s *courseService) UpdateCourse(ctx context.Context, c *model.Course) error {
	existing, err := s.courses.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCourseNotFound
	}

	if err := s.courses.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrCourseNotFound
		case errors.Is(err, repository.ErrDuplicateSlug):
			return ErrDuplicateSlug
		}
		s.logger.Error().Err(err).Str("course_id", c.ID).Msg("Failed to update course")
		return err
	}

	if existing.ThumbnailPath != "" && existing.ThumbnailPath != c.ThumbnailPath {
		s.deleteObjectQuietly(ctx, existing.ThumbnailPath)
	}
	return nil
}

func (s *courseService) DeleteCourse(ctx context.Context, courseID string) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, courseID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrCourseNotFound
		case errors.Is(err, repository.ErrCourseInUse):
			return ErrCourseHasPurchases
		}
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
		return err
	}

	// The rows are gone; what is left is best-effort cleanup of hosted files.
	for _, l := range lessons {
		if l.VideoAssetID == "" {
			continue
		}
		provider, err := s.providers.Get(l.VideoProvider)
		if err != nil {
			s.logger.Warn().Err(err).Str("lesson_id", l.ID).Str("provider", l.VideoProvider).Msg("Cannot delete video of removed lesson")
			continue
		}
		if err := provider.DeleteAsset(ctx, l.VideoAssetID); err != nil {
			s.logger.Warn().Err(err).Str("lesson_id", l.ID).Str("asset_id", l.VideoAssetID).Msg("Failed to delete video of removed lesson")
		}
	}
	s.deleteObjectQuietly(ctx, course.ThumbnailPath)

	s.logger.Info().Str("course_id", courseID).Int("lessons", len(lessons)).Msg("Course deleted")
	return nil
}

func (s *courseService) deleteObjectQuietly(ctx context.Context, key string) {
	if key == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored object")
	}
}
