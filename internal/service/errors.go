package service

import (
	"errors"

	"coursemart/internal/payment"
	"coursemart/internal/video"
)

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrSlideNotFound        = errors.New("hero slide not found")
	ErrTestimonialNotFound  = errors.New("testimonial not found")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrAlreadyPurchased     = errors.New("course already purchased")
	ErrCourseNotPurchasable = errors.New("course cannot be purchased through this gateway")
	ErrInvalidLessonOrder   = errors.New("lesson order must list every lesson of the course exactly once")
	ErrInvalidOrder         = errors.New("order must list every item exactly once")
	ErrForbidden            = errors.New("forbidden")
	ErrUnknownGateway       = errors.New("unknown payment gateway")
	ErrDuplicateSlug        = errors.New("course slug already exists")
	ErrCourseHasPurchases   = errors.New("course has purchases and cannot be deleted")
	ErrInvalidUploadKind    = errors.New("upload kind must be courses, hero or testimonials")
	ErrVideoNotReady        = errors.New("lesson video is not ready")

	// ErrUnknownProvider is returned for a video provider that is not configured.
	ErrUnknownProvider = video.ErrUnknownProvider
	// ErrInvalidWebhook is returned when a gateway webhook fails verification.
	ErrInvalidWebhook = payment.ErrInvalidWebhook
	// ErrIgnoredEvent is returned for webhooks that do not change an order.
	ErrIgnoredEvent = payment.ErrIgnoredEvent
)
