package dto

import "time"

type CourseResponseDTO struct {
	CourseID      string    `json:"course_id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PricePaise    int64     `json:"price_paise"`
	Price         string    `json:"price" doc:"Formatted price, e.g. ₹1,499.00"`
	Currency      string    `json:"currency"`
	IsFree        bool      `json:"is_free"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LessonOutlineDTO is a lesson as shown on the public course page, without its video
type LessonOutlineDTO struct {
	LessonID        string `json:"lesson_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Position        int    `json:"position"`
	IsPreview       bool   `json:"is_preview"`
	HasVideo        bool   `json:"has_video"`
	DurationSeconds int    `json:"duration_seconds"`
}

type CourseDetailResponseDTO struct {
	CourseResponseDTO
	Lessons []LessonOutlineDTO `json:"lessons"`
	Owned   bool               `json:"owned"`
}

type PlaybackResponseDTO struct {
	LessonID        string `json:"lesson_id"`
	Provider        string `json:"provider"`
	PlaybackURL     string `json:"playback_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CourseCreateDTO is the admin request to create a course
type CourseCreateDTO struct {
	Slug          string `json:"slug" validate:"required,max=120,slug"`
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=10000"`
	PricePaise    int64  `json:"price_paise" validate:"gte=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3,uppercase"`
	ThumbnailPath string `json:"thumbnail_path" validate:"max=500"`
	Published     bool   `json:"published"`
}

// CourseUpdateDTO only changes the fields that are present
type CourseUpdateDTO struct {
	Slug          *string `json:"slug,omitempty" validate:"omitempty,max=120,slug"`
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	PricePaise    *int64  `json:"price_paise,omitempty" validate:"omitempty,gte=0"`
	Currency      *string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	ThumbnailPath *string `json:"thumbnail_path,omitempty" validate:"omitempty,max=500"`
	Published     *bool   `json:"published,omitempty"`
}
