package handler

import (
	"net/http"
	"strings"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler handles the admin endpoints for courses, lessons and lesson videos
type CourseHandler struct {
	courseService service.CourseService
	lessonService service.LessonService
	publicURL     PublicURLFunc
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(
	courseService service.CourseService,
	lessonService service.LessonService,
	publicURL PublicURLFunc,
	validate *validator.Validate,
	logger zerolog.Logger,
) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		lessonService: lessonService,
		publicURL:     publicURL,
		validate:      validate,
		logger:        logger,
	}
}

// RegisterRoutes mounts the admin course routes. The caller applies the admin middleware.
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/courses", h.listCourses)
	r.Post("/courses", h.createCourse)

	byID := r.With(requireUUIDParam("id"))
	byID.Get("/courses/{id}", h.getCourse)
	byID.Put("/courses/{id}", h.updateCourse)
	byID.Delete("/courses/{id}", h.deleteCourse)

	byID.Get("/courses/{id}/lessons", h.listLessons)
	byID.Post("/courses/{id}/lessons", h.createLesson)
	byID.Put("/courses/{id}/lessons/order", h.reorderLessons)
	byID.Put("/lessons/{id}", h.updateLesson)
	byID.Delete("/lessons/{id}", h.deleteLesson)
	byID.Post("/lessons/{id}/video", h.startVideoUpload)
	byID.Delete("/lessons/{id}/video", h.removeVideo)
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list courses", h.logger)
		return
	}
	out := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		out = append(out, toCourseDTO(&courses[i], h.publicURL))
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req dto.CourseCreateDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	course := &model.Course{
		Slug:          req.Slug,
		Title:         req.Title,
		Description:   req.Description,
		PricePaise:    req.PricePaise,
		Currency:      currency,
		ThumbnailPath: req.ThumbnailPath,
		Published:     req.Published,
	}
	if err := h.courseService.CreateCourse(r.Context(), course); err != nil {
		writeServiceError(w, err, "Failed to create course", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseDTO(course, h.publicURL), h.logger)
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve course", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toCourseDTO(course, h.publicURL), h.logger)
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	var req dto.CourseUpdateDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	course, err := h.courseService.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve course", h.logger)
		return
	}
	if req.Slug != nil {
		course.Slug = *req.Slug
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.PricePaise != nil {
		course.PricePaise = *req.PricePaise
	}
	if req.Currency != nil {
		course.Currency = strings.ToUpper(*req.Currency)
	}
	if req.ThumbnailPath != nil {
		course.ThumbnailPath = *req.ThumbnailPath
	}
	if req.Published != nil {
		course.Published = *req.Published
	}
	if err := h.courseService.UpdateCourse(r.Context(), course); err != nil {
		writeServiceError(w, err, "Failed to update course", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toCourseDTO(course, h.publicURL), h.logger)
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.courseService.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete course", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) listLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.ListLessons(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to list lessons", h.logger)
		return
	}
	out := make([]dto.LessonResponseDTO, 0, len(lessons))
	for i := range lessons {
		out = append(out, toLessonDTO(&lessons[i]))
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func (h *CourseHandler) createLesson(w http.ResponseWriter, r *http.Request) {
	var req dto.LessonCreateDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lesson := &model.Lesson{
		CourseID:    chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		IsPreview:   req.IsPreview,
	}
	if err := h.lessonService.CreateLesson(r.Context(), lesson); err != nil {
		writeServiceError(w, err, "Failed to create lesson", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, toLessonDTO(lesson), h.logger)
}

func (h *CourseHandler) reorderLessons(w http.ResponseWriter, r *http.Request) {
	var req dto.ReorderDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	courseID := chi.URLParam(r, "id")
	if err := h.lessonService.ReorderLessons(r.Context(), courseID, req.IDs); err != nil {
		writeServiceError(w, err, "Failed to reorder lessons", h.logger)
		return
	}
	h.listLessons(w, r)
}

func (h *CourseHandler) updateLesson(w http.ResponseWriter, r *http.Request) {
	var req dto.LessonUpdateDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lesson, err := h.lessonService.GetLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve lesson", h.logger)
		return
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Description != nil {
		lesson.Description = *req.Description
	}
	if req.IsPreview != nil {
		lesson.IsPreview = *req.IsPreview
	}
	if err := h.lessonService.UpdateLesson(r.Context(), lesson); err != nil {
		writeServiceError(w, err, "Failed to update lesson", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toLessonDTO(lesson), h.logger)
}

func (h *CourseHandler) deleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := h.lessonService.DeleteLesson(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete lesson", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) startVideoUpload(w http.ResponseWriter, r *http.Request) {
	var req dto.VideoUploadRequestDTO
	if err := decodeJSON(w, r, &req, h.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	up, err := h.lessonService.StartVideoUpload(r.Context(), chi.URLParam(r, "id"), req.Provider, req.Filename, req.SizeBytes)
	if err != nil {
		writeServiceError(w, err, "Failed to start video upload", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, dto.VideoUploadResponseDTO{
		UploadID:  up.ID,
		UploadURL: up.URL,
		Method:    up.Method,
		Protocol:  up.Protocol,
	}, h.logger)
}

func (h *CourseHandler) removeVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.lessonService.RemoveVideo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to remove video", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
