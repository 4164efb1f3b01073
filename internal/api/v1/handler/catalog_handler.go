package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/middleware"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler serves the public storefront operations.
type CatalogHandler struct {
	catalog   service.CatalogService
	publicURL PublicURLFunc
	logger    zerolog.Logger
}

func NewCatalogHandler(catalog service.CatalogService, publicURL PublicURLFunc, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		publicURL: publicURL,
		logger:    logger,
	}
}

// optionalUserID returns the caller's id, or "" for anonymous requests.
func optionalUserID(ctx context.Context) string {
	if user, ok := middleware.UserFromContext(ctx); ok {
		return user.UserID
	}
	return ""
}

func (h *CatalogHandler) ListCourses(ctx context.Context, input *operation.ListCoursesInput) (*operation.ListCoursesOutput, error) {
	courses, err := h.catalog.ListCourses(ctx)
	if err != nil {
		return nil, humaError(err, "Failed to list courses")
	}
	out := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		out = append(out, toCourseDTO(&courses[i], h.publicURL))
	}
	return &operation.ListCoursesOutput{Body: out}, nil
}

func (h *CatalogHandler) GetCourse(ctx context.Context, input *operation.GetCourseInput) (*operation.GetCourseOutput, error) {
	detail, err := h.catalog.GetCourse(ctx, input.Slug, optionalUserID(ctx))
	if err != nil {
		return nil, humaError(err, "Failed to retrieve course")
	}
	return &operation.GetCourseOutput{Body: toCourseDetailDTO(detail, h.publicURL)}, nil
}

func (h *CatalogHandler) GetPlayback(ctx context.Context, input *operation.GetPlaybackInput) (*operation.GetPlaybackOutput, error) {
	pb, err := h.catalog.GetPlayback(ctx, input.Slug, input.LessonID, optionalUserID(ctx))
	if err != nil {
		return nil, humaError(err, "Failed to retrieve playback")
	}
	return &operation.GetPlaybackOutput{
		Body: dto.PlaybackResponseDTO{
			LessonID:        pb.LessonID,
			Provider:        pb.Provider,
			PlaybackURL:     pb.PlaybackURL,
			DurationSeconds: pb.DurationSeconds,
		},
	}, nil
}

func (h *CatalogHandler) ListHeroSlides(ctx context.Context, input *operation.ListHeroSlidesInput) (*operation.ListHeroSlidesOutput, error) {
	slides, err := h.catalog.ListHeroSlides(ctx)
	if err != nil {
		return nil, humaError(err, "Failed to list hero slides")
	}
	out := make([]dto.HeroSlideResponseDTO, 0, len(slides))
	for i := range slides {
		out = append(out, toHeroSlideDTO(&slides[i], h.publicURL))
	}
	return &operation.ListHeroSlidesOutput{Body: out}, nil
}

func (h *CatalogHandler) ListTestimonials(ctx context.Context, input *operation.ListTestimonialsInput) (*operation.ListTestimonialsOutput, error) {
	testimonials, err := h.catalog.ListTestimonials(ctx)
	if err != nil {
		return nil, humaError(err, "Failed to list testimonials")
	}
	out := make([]dto.TestimonialResponseDTO, 0, len(testimonials))
	for i := range testimonials {
		out = append(out, toTestimonialDTO(&testimonials[i], h.publicURL))
	}
	return &operation.ListTestimonialsOutput{Body: out}, nil
}
