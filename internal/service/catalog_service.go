package service

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CourseDetail is a published course with its lesson outline and whether the caller owns it.
type CourseDetail struct {
	Course  *model.Course
	Lessons []model.Lesson
	Owned   bool
}

// Playback is what a viewer needs to play a lesson.
type Playback struct {
	LessonID        string
	Provider        string
	PlaybackURL     string
	DurationSeconds int
}

// CatalogService serves the public storefront.
type CatalogService interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse returns a published course. userID may be empty for anonymous callers.
	GetCourse(ctx context.Context, slug, userID string) (*CourseDetail, error)
	// GetPlayback returns the video of a lesson the caller may watch: a preview, or any lesson of an owned course.
	GetPlayback(ctx context.Context, slug, lessonID, userID string) (*Playback, error)
	ListHeroSlides(ctx context.Context) ([]model.HeroSlide, error)
	ListTestimonials(ctx context.Context) ([]model.Testimonial, error)
	MyPurchases(ctx context.Context, userID string) ([]model.Purchase, error)
}

type catalogService struct {
	courses      repository.CourseRepository
	lessons      repository.LessonRepository
	purchases    repository.PurchaseRepository
	slides       repository.HeroSlideRepository
	testimonials repository.TestimonialRepository
	logger       zerolog.Logger
}

func NewCatalogService(
	courses repository.CourseRepository,
	lessons repository.LessonRepository,
	purchases repository.PurchaseRepository,
	slides repository.HeroSlideRepository,
	testimonials repository.TestimonialRepository,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		courses:      courses,
		lessons:      lessons,
		purchases:    purchases,
		slides:       slides,
		testimonials: testimonials,
		logger:       logger.With().Str("service", "CatalogService").Logger(),
	}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.courses.List(ctx, true)
}

func (s *catalogService) publishedCourse(ctx context.Context, slug string) (*model.Course, error) {
	course, err := s.courses.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if course == nil || !course.Published {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *catalogService) GetCourse(ctx context.Context, slug, userID string) (*CourseDetail, error) {
	course, err := s.publishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: course}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lessons, err := s.lessons.ListByCourse(gctx, course.ID)
		if err != nil {
			return err
		}
		for i := range lessons {
			outline(&lessons[i])
		}
		detail.Lessons = lessons
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			owned, err := s.purchases.HasCompleted(gctx, userID, course.ID)
			if err != nil {
				return err
			}
			detail.Owned = owned
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to load course detail")
		return nil, err
	}
	return detail, nil
}

// outline strips everything that would let a caller play the lesson without going through GetPlayback.
func outline(l *model.Lesson) {
	l.VideoUploadID = ""
	l.VideoAssetID = ""
	l.VideoPlaybackURL = ""
}

func (s *catalogService) GetPlayback(ctx context.Context, slug, lessonID, userID string) (*Playback, error) {
	course, err := s.publishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil || lesson.CourseID != course.ID {
		return nil, ErrLessonNotFound
	}

	if !lesson.IsPreview {
		if userID == "" {
			return nil, ErrForbidden
		}
		owned, err := s.purchases.HasCompleted(ctx, userID, course.ID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, ErrForbidden
		}
	}

	// A lesson being re-uploaded keeps its previous playback URL until the new asset is ready.
	if lesson.VideoPlaybackURL == "" {
		return nil, fmt.Errorf("%w: %w", ErrLessonNotFound, ErrVideoNotReady)
	}
	return &Playback{
		LessonID:        lesson.ID,
		Provider:        lesson.VideoProvider,
		PlaybackURL:     lesson.VideoPlaybackURL,
		DurationSeconds: lesson.DurationSeconds,
	}, nil
}

func (s *catalogService) ListHeroSlides(ctx context.Context) ([]model.HeroSlide, error) {
	return s.slides.List(ctx, true)
}

func (s *catalogService) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	return s.testimonials.List(ctx, true)
}

func (s *catalogService) MyPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return s.purchases.ListByUser(ctx, userID)
}
