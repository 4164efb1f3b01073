package handler

import (
	"coursemart/internal/api/v1/dto"
	"coursemart/internal/model"
	"coursemart/internal/notifications"
	"coursemart/internal/service"
)

// PublicURLFunc turns a storage path into a browser-facing URL.
type PublicURLFunc func(path string) string

func toCourseDTO(c *model.Course, publicURL PublicURLFunc) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		CourseID:      c.ID,
		Slug:          c.Slug,
		Title:         c.Title,
		Description:   c.Description,
		PricePaise:    c.PricePaise,
		Price:         notifications.FormatAmount(c.PricePaise, c.Currency),
		Currency:      c.Currency,
		IsFree:        c.IsFree(),
		ThumbnailPath: c.ThumbnailPath,
		ThumbnailURL:  publicURL(c.ThumbnailPath),
		Published:     c.Published,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCourseDetailDTO(d *service.CourseDetail, publicURL PublicURLFunc) dto.CourseDetailResponseDTO {
	lessons := make([]dto.LessonOutlineDTO, 0, len(d.Lessons))
	for _, l := range d.Lessons {
		lessons = append(lessons, dto.LessonOutlineDTO{
			LessonID:        l.ID,
			Title:           l.Title,
			Description:     l.Description,
			Position:        l.Position,
			IsPreview:       l.IsPreview,
			HasVideo:        l.VideoProvider != "" && l.VideoStatus != model.VideoStatusNone,
			DurationSeconds: l.DurationSeconds,
		})
	}
	return dto.CourseDetailResponseDTO{
		CourseResponseDTO: toCourseDTO(d.Course, publicURL),
		Lessons:           lessons,
		Owned:             d.Owned,
	}
}

func toLessonDTO(l *model.Lesson) dto.LessonResponseDTO {
	return dto.LessonResponseDTO{
		LessonID:         l.ID,
		CourseID:         l.CourseID,
		Title:            l.Title,
		Description:      l.Description,
		Position:         l.Position,
		IsPreview:        l.IsPreview,
		VideoProvider:    l.VideoProvider,
		VideoStatus:      l.VideoStatus,
		VideoPlaybackURL: l.VideoPlaybackURL,
		DurationSeconds:  l.DurationSeconds,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func toHeroSlideDTO(s *model.HeroSlide, publicURL PublicURLFunc) dto.HeroSlideResponseDTO {
	return dto.HeroSlideResponseDTO{
		SlideID:   s.ID,
		Title:     s.Title,
		Subtitle:  s.Subtitle,
		ImagePath: s.ImagePath,
		ImageURL:  publicURL(s.ImagePath),
		CTALabel:  s.CTALabel,
		CTAURL:    s.CTAURL,
		Position:  s.Position,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toTestimonialDTO(t *model.Testimonial, publicURL PublicURLFunc) dto.TestimonialResponseDTO {
	return dto.TestimonialResponseDTO{
		TestimonialID: t.ID,
		AuthorName:    t.AuthorName,
		AuthorTitle:   t.AuthorTitle,
		AvatarPath:    t.AvatarPath,
		AvatarURL:     publicURL(t.AvatarPath),
		Quote:         t.Quote,
		Rating:        t.Rating,
		Position:      t.Position,
		Published:     t.Published,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toPurchaseDTO(p *model.Purchase) dto.PurchaseResponseDTO {
	return dto.PurchaseResponseDTO{
		MerchantOrderID: p.MerchantOrderID,
		CourseID:        p.CourseID,
		Gateway:         p.Gateway,
		AmountPaise:     p.AmountPaise,
		Amount:          notifications.FormatAmount(p.AmountPaise, p.Currency),
		Currency:        p.Currency,
		State:           p.State,
		FailureReason:   p.FailureReason,
		CreatedAt:       p.CreatedAt,
		CompletedAt:     p.CompletedAt,
	}
}
