package handler

import (
	"net/http"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ContentHandler handles the admin endpoints for the hero carousel, testimonials and image uploads
type ContentHandler struct {
	contentService service.ContentService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewContentHandler(contentService service.ContentService, validate *validator.Validate, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		validate:       validate,
		logger:         logger,
	}
}

func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/hero-slides", h.listHeroSlides)
	r.Post("/hero-slides", h.createHeroSlide)
	r.Put("/hero-slides/order", h.reorderHeroSlides)
	r.With(requireUUIDParam("id")).Put("/hero-slides/{id}", h.updateHeroSlide)
	r.With(requireUUIDParam("id")).Delete("/hero-slides/{id}", h.deleteHeroSlide)

	r.Get("/testimonials", h.listTestimonials)
	r.Post("/testimonials", h.createTestimonial)
	r.Put("/testimonials/order", h.reorderTestimonials)
	r.With(requireUUIDParam("id")).Put("/testimonials/{id}", h.updateTestimonial)
	r.With(requireUUIDParam("id")).Delete("/testimonials/{id}", h.deleteTestimonial)

	r.Post("/uploads", h.imageUploadURL)
}

func (h *ContentHandler) listHeroSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.contentService.ListHeroSlides(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list hero slides", h.logger)
		return
	}
	out := make([]dto.HeroSlideResponseDTO, 0, len(slides))
	for i := range slides {
		out = append(out, toHeroSlideDTO(&slides[i], h.contentService.PublicURL))
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func heroSlideFromDTO(id string, req dto.HeroSlideRequestDTO) *model.HeroSlide {
	return &model.HeroSlide{
		ID:        id,
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		ImagePath: req.ImagePath,
		CTALabel:  req.CTALabel,
		CTAURL:    req.CTAURL,
		Active:    req.Active,
	}
}

func (h *ContentHandler) createHeroSlide(w http.ResponseWriter, r *http.Request) {
	var req dto.HeroSlideRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slide := heroSlideFromDTO("", req)
	if err := h.contentService.CreateHeroSlide(r.Context(), slide); err != nil {
		writeServiceError(w, err, "Failed to create hero slide", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, toHeroSlideDTO(slide, h.contentService.PublicURL), h.logger)
}

func (h *ContentHandler) updateHeroSlide(w http.ResponseWriter, r *http.Request) {
	var req dto.HeroSlideRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slide := heroSlideFromDTO(chi.URLParam(r, "id"), req)
	if err := h.contentService.UpdateHeroSlide(r.Context(), slide); err != nil {
		writeServiceError(w, err, "Failed to update hero slide", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toHeroSlideDTO(slide, h.contentService.PublicURL), h.logger)
}

func (h *ContentHandler) deleteHeroSlide(w http.ResponseWriter, r *http.Request) {
	if err := h.contentService.DeleteHeroSlide(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete hero slide", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) reorderHeroSlides(w http.ResponseWriter, r *http.Request) {
	var req dto.ReorderDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.contentService.ReorderHeroSlides(r.Context(), req.IDs); err != nil {
		writeServiceError(w, err, "Failed to reorder hero slides", h.logger)
		return
	}
	h.listHeroSlides(w, r)
}

func (h *ContentHandler) listTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.contentService.ListTestimonials(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list testimonials", h.logger)
		return
	}
	out := make([]dto.TestimonialResponseDTO, 0, len(testimonials))
	for i := range testimonials {
		out = append(out, toTestimonialDTO(&testimonials[i], h.contentService.PublicURL))
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func testimonialFromDTO(id string, req dto.TestimonialRequestDTO) *model.Testimonial {
	return &model.Testimonial{
		ID:          id,
		AuthorName:  req.AuthorName,
		AuthorTitle: req.AuthorTitle,
		AvatarPath:  req.AvatarPath,
		Quote:       req.Quote,
		Rating:      req.Rating,
		Published:   req.Published,
	}
}

func (h *ContentHandler) createTestimonial(w http.ResponseWriter, r *http.Request) {
	var req dto.TestimonialRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := testimonialFromDTO("", req)
	if err := h.contentService.CreateTestimonial(r.Context(), t); err != nil {
		writeServiceError(w, err, "Failed to create testimonial", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, toTestimonialDTO(t, h.contentService.PublicURL), h.logger)
}

func (h *ContentHandler) updateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req dto.TestimonialRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := testimonialFromDTO(chi.URLParam(r, "id"), req)
	if err := h.contentService.UpdateTestimonial(r.Context(), t); err != nil {
		writeServiceError(w, err, "Failed to update testimonial", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toTestimonialDTO(t, h.contentService.PublicURL), h.logger)
}

func (h *ContentHandler) deleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.contentService.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete testimonial", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) reorderTestimonials(w http.ResponseWriter, r *http.Request) {
	var req dto.ReorderDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.contentService.ReorderTestimonials(r.Context(), req.IDs); err != nil {
		writeServiceError(w, err, "Failed to reorder testimonials", h.logger)
		return
	}
	h.listTestimonials(w, r)
}

func (h *ContentHandler) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	var req dto.ImageUploadRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	up, err := h.contentService.ImageUploadURL(r.Context(), req.Kind, req.ID, req.Filename, req.ContentType)
	if err != nil {
		writeServiceError(w, err, "Failed to create upload URL", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageUploadResponseDTO{
		UploadURL: up.UploadURL,
		Path:      up.Path,
		PublicURL: up.PublicURL,
	}, h.logger)
}
