package service

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// Image upload kinds, also the first segment of the storage path.
const (
	UploadKindCourses      = "courses"
	UploadKindHero         = "hero"
	UploadKindTestimonials = "testimonials"
)

// ImageUpload is a presigned PUT target for an image and the path to store once it is uploaded.
type ImageUpload struct {
	UploadURL string `json:"upload_url"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// ContentService manages the landing page content: the hero carousel, testimonials and images.
type ContentService interface {
	ListHeroSlides(ctx context.Context) ([]model.HeroSlide, error)
	CreateHeroSlide(ctx context.Context, s *model.HeroSlide) error
	UpdateHeroSlide(ctx context.Context, s *model.HeroSlide) error
	DeleteHeroSlide(ctx context.Context, slideID string) error
	ReorderHeroSlides(ctx context.Context, slideIDs []string) error

	ListTestimonials(ctx context.Context) ([]model.Testimonial, error)
	CreateTestimonial(ctx context.Context, t *model.Testimonial) error
	UpdateTestimonial(ctx context.Context, t *model.Testimonial) error
	DeleteTestimonial(ctx context.Context, testimonialID string) error
	ReorderTestimonials(ctx context.Context, testimonialIDs []string) error

	ImageUploadURL(ctx context.Context, kind, id, filename, contentType string) (*ImageUpload, error)
	PublicURL(path string) string
}

type contentService struct {
	slides       repository.HeroSlideRepository
	testimonials repository.TestimonialRepository
	storage      StorageService
	logger       zerolog.Logger
}

func NewContentService(
	slides repository.HeroSlideRepository,
	testimonials repository.TestimonialRepository,
	storage StorageService,
	logger zerolog.Logger,
) ContentService {
	return &contentService{
		slides:       slides,
		testimonials: testimonials,
		storage:      storage,
		logger:       logger.With().Str("service", "ContentService").Logger(),
	}
}

func (s *contentService) ListHeroSlides(ctx context.Context) ([]model.HeroSlide, error) {
	return s.slides.List(ctx, false)
}

func (s *contentService) CreateHeroSlide(ctx context.Context, slide *model.HeroSlide) error {
	if err := s.slides.Create(ctx, slide); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create hero slide")
		return err
	}
	return nil
}

func (s *contentService) UpdateHeroSlide(ctx context.Context, slide *model.HeroSlide) error {
	existing, err := s.slides.GetByID(ctx, slide.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSlideNotFound
	}
	if err := s.slides.Update(ctx, slide); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlideNotFound
		}
		s.logger.Error().Err(err).Str("slide_id", slide.ID).Msg("Failed to update hero slide")
		return err
	}
	if existing.ImagePath != slide.ImagePath {
		s.deleteObjectQuietly(ctx, existing.ImagePath)
	}
	return nil
}

func (s *contentService) DeleteHeroSlide(ctx context.Context, slideID string) error {
	existing, err := s.slides.GetByID(ctx, slideID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSlideNotFound
	}
	if err := s.slides.Delete(ctx, slideID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlideNotFound
		}
		s.logger.Error().Err(err).Str("slide_id", slideID).Msg("Failed to delete hero slide")
		return err
	}
	s.deleteObjectQuietly(ctx, existing.ImagePath)
	return nil
}

func (s *contentService) ReorderHeroSlides(ctx context.Context, slideIDs []string) error {
	if err := s.slides.Reorder(ctx, slideIDs); err != nil {
		if errors.Is(err, repository.ErrInvalidOrder) {
			return ErrInvalidOrder
		}
		s.logger.Error().Err(err).Msg("Failed to reorder hero slides")
		return err
	}
	return nil
}

func (s *contentService) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	return s.testimonials.List(ctx, false)
}

func (s *contentService) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	if err := s.testimonials.Create(ctx, t); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create testimonial")
		return err
	}
	return nil
}

func (s *contentService) UpdateTestimonial(ctx context.Context, t *model.Testimonial) error {
	existing, err := s.testimonials.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTestimonialNotFound
	}
	if err := s.testimonials.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTestimonialNotFound
		}
		s.logger.Error().Err(err).Str("testimonial_id", t.ID).Msg("Failed to update testimonial")
		return err
	}
	if existing.AvatarPath != t.AvatarPath {
		s.deleteObjectQuietly(ctx, existing.AvatarPath)
	}
	return nil
}

func (s *contentService) DeleteTestimonial(ctx context.Context, testimonialID string) error {
	existing, err := s.testimonials.GetByID(ctx, testimonialID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTestimonialNotFound
	}
	if err := s.testimonials.Delete(ctx, testimonialID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTestimonialNotFound
		}
		s.logger.Error().Err(err).Str("testimonial_id", testimonialID).Msg("Failed to delete testimonial")
		return err
	}
	s.deleteObjectQuietly(ctx, existing.AvatarPath)
	return nil
}

func (s *contentService) ReorderTestimonials(ctx context.Context, testimonialIDs []string) error {
	if err := s.testimonials.Reorder(ctx, testimonialIDs); err != nil {
		if errors.Is(err, repository.ErrInvalidOrder) {
			return ErrInvalidOrder
		}
		s.logger.Error().Err(err).Msg("Failed to reorder testimonials")
		return err
	}
	return nil
}

func (s *contentService) ImageUploadURL(ctx context.Context, kind, id, filename, contentType string) (*ImageUpload, error) {
	switch kind {
	case UploadKindCourses, UploadKindHero, UploadKindTestimonials:
	default:
		return nil, ErrInvalidUploadKind
	}
	key := ImageKey(kind, id, filename)
	uploadURL, err := s.storage.PresignUpload(ctx, key, contentType)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to presign image upload")
		return nil, err
	}
	return &ImageUpload{UploadURL: uploadURL, Path: key, PublicURL: s.storage.PublicURL(key)}, nil
}

func (s *contentService) PublicURL(path string) string {
	return s.storage.PublicURL(path)
}

// ImageKey is the storage path of an uploaded image: <kind>/<id>/<sanitized filename>.
func ImageKey(kind, id, filename string) string {
	return fmt.Sprintf("%s/%s/%s", kind, sanitizeFilename(id), sanitizeFilename(filename))
}

func (s *contentService) deleteObjectQuietly(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored object")
	}
}
