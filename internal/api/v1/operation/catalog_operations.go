package operation

import "coursemart/internal/api/v1/dto"

// Storefront Operations

type ListCoursesInput struct{}

type ListCoursesOutput struct {
	Body []dto.CourseResponseDTO `json:"body"`
}

type GetCourseInput struct {
	Slug string `path:"slug" doc:"Course slug"`
}

type GetCourseOutput struct {
	Body dto.CourseDetailResponseDTO `json:"body"`
}

type GetPlaybackInput struct {
	Slug     string `path:"slug" doc:"Course slug"`
	LessonID string `path:"lessonId" format:"uuid" doc:"Lesson ID"`
}

type GetPlaybackOutput struct {
	Body dto.PlaybackResponseDTO `json:"body"`
}

type ListHeroSlidesInput struct{}

type ListHeroSlidesOutput struct {
	Body []dto.HeroSlideResponseDTO `json:"body"`
}

type ListTestimonialsInput struct{}

type ListTestimonialsOutput struct {
	Body []dto.TestimonialResponseDTO `json:"body"`
}
