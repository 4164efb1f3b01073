package dto

import "time"

type HeroSlideResponseDTO struct {
	SlideID   string    `json:"slide_id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	ImagePath string    `json:"image_path,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CTALabel  string    `json:"cta_label,omitempty"`
	CTAURL    string    `json:"cta_url,omitempty"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HeroSlideRequestDTO struct {
	Title     string `json:"title" validate:"required,max=200"`
	Subtitle  string `json:"subtitle" validate:"max=500"`
	ImagePath string `json:"image_path" validate:"max=500"`
	CTALabel  string `json:"cta_label" validate:"max=60"`
	CTAURL    string `json:"cta_url" validate:"omitempty,url"`
	Active    bool   `json:"active"`
}

type TestimonialResponseDTO struct {
	TestimonialID string    `json:"testimonial_id"`
	AuthorName    string    `json:"author_name"`
	AuthorTitle   string    `json:"author_title,omitempty"`
	AvatarPath    string    `json:"avatar_path,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Quote         string    `json:"quote"`
	Rating        int       `json:"rating"`
	Position      int       `json:"position"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TestimonialRequestDTO struct {
	AuthorName  string `json:"author_name" validate:"required,max=120"`
	AuthorTitle string `json:"author_title" validate:"max=120"`
	AvatarPath  string `json:"avatar_path" validate:"max=500"`
	Quote       string `json:"quote" validate:"required,max=2000"`
	Rating      int    `json:"rating" validate:"gte=1,lte=5"`
	Published   bool   `json:"published"`
}

// ImageUploadRequestDTO asks for a presigned URL to upload a course, hero or testimonial image
type ImageUploadRequestDTO struct {
	Kind        string `json:"kind" validate:"required,oneof=courses hero testimonials"`
	ID          string `json:"id" validate:"required,max=64"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"omitempty,startswith=image/"`
}

type ImageUploadResponseDTO struct {
	UploadURL string `json:"upload_url"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}
