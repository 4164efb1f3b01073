package dto

import "time"

type LessonResponseDTO struct {
	LessonID         string    `json:"lesson_id"`
	CourseID         string    `json:"course_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Position         int       `json:"position"`
	IsPreview        bool      `json:"is_preview"`
	VideoProvider    string    `json:"video_provider,omitempty"`
	VideoStatus      string    `json:"video_status"`
	VideoPlaybackURL string    `json:"video_playback_url,omitempty"`
	DurationSeconds  int       `json:"duration_seconds"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type LessonCreateDTO struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
	IsPreview   bool   `json:"is_preview"`
}

type LessonUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	IsPreview   *bool   `json:"is_preview,omitempty"`
}

// ReorderDTO lists every id of the collection in its new order
type ReorderDTO struct {
	IDs []string `json:"ids" validate:"required,dive,uuid"`
}

type VideoUploadRequestDTO struct {
	Provider  string `json:"provider" validate:"omitempty,oneof=mux vimeo cloudflare"`
	Filename  string `json:"filename" validate:"required,max=255"`
	SizeBytes int64  `json:"size_bytes" validate:"gt=0"`
}

type VideoUploadResponseDTO struct {
	UploadID  string `json:"upload_id"`
	UploadURL string `json:"upload_url"`
	Method    string `json:"method"`
	Protocol  string `json:"protocol,omitempty"`
}
