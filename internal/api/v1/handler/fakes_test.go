package handler

import (
	"context"
	"net/http"

	"coursemart/internal/model"
	"coursemart/internal/service"
	"coursemart/internal/video"
)

// The fakes embed the service interfaces so a test only implements what it calls.

type fakeCourses struct {
	service.CourseService
	courses map[string]*model.Course
	created []*model.Course
	updated []*model.Course
	delErr  error
}

func (f *fakeCourses) ListCourses(context.Context) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCourses) GetCourse(_ context.Context, id string) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, service.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) CreateCourse(_ context.Context, c *model.Course) error {
	c.ID = "course-new"
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCourses) UpdateCourse(_ context.Context, c *model.Course) error {
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeCourses) DeleteCourse(context.Context, string) error {
	return f.delErr
}

type fakeLessons struct {
	service.LessonService
	lessons    map[string]*model.Lesson
	reordered  []string
	reorderErr error
	upload     *video.Upload
	uploadArgs []string
}

func (f *fakeLessons) ListLessons(_ context.Context, courseID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, id := range f.reordered {
		if l, ok := f.lessons[id]; ok && l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLessons) GetLesson(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, service.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLessons) UpdateLesson(_ context.Context, l *model.Lesson) error {
	f.lessons[l.ID] = l
	return nil
}

func (f *fakeLessons) ReorderLessons(_ context.Context, _ string, ids []string) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reordered = ids
	return nil
}

func (f *fakeLessons) StartVideoUpload(_ context.Context, lessonID, provider, filename string, _ int64) (*video.Upload, error) {
	f.uploadArgs = []string{lessonID, provider, filename}
	return f.upload, nil
}

type fakeContent struct {
	service.ContentService
	slides     []model.HeroSlide
	deleted    []string
	reorderErr error
	uploadErr  error
}

func (f *fakeContent) DeleteHeroSlide(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeContent) ListHeroSlides(context.Context) ([]model.HeroSlide, error) {
	return f.slides, nil
}

func (f *fakeContent) CreateHeroSlide(_ context.Context, s *model.HeroSlide) error {
	s.ID = "slide-new"
	s.Position = len(f.slides) + 1
	f.slides = append(f.slides, *s)
	return nil
}

func (f *fakeContent) ReorderHeroSlides(context.Context, []string) error {
	return f.reorderErr
}

func (f *fakeContent) ImageUploadURL(_ context.Context, kind, id, filename, _ string) (*service.ImageUpload, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	path := kind + "/" + id + "/" + filename
	return &service.ImageUpload{UploadURL: "https://s3.test/" + path + "?sig=1", Path: path, PublicURL: f.PublicURL(path)}, nil
}

func (f *fakeContent) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://cdn.test/" + path
}

type fakeCheckout struct {
	service.CheckoutService
	result     *service.CheckoutResult
	err        error
	purchase   *model.Purchase
	webhookErr error
	gotUser    *model.User
}

func (f *fakeCheckout) Checkout(_ context.Context, user *model.User, _, _ string) (*service.CheckoutResult, error) {
	f.gotUser = user
	return f.result, f.err
}

func (f *fakeCheckout) Status(_ context.Context, user *model.User, _ string) (*model.Purchase, error) {
	f.gotUser = user
	return f.purchase, f.err
}

func (f *fakeCheckout) HandleWebhook(context.Context, string, *http.Request, []byte) (*model.Purchase, error) {
	return f.purchase, f.webhookErr
}

type fakeCatalog struct {
	service.CatalogService
	courses   []model.Course
	detail    *service.CourseDetail
	playback  *service.Playback
	err       error
	gotUserID string
	purchases []model.Purchase
}

func (f *fakeCatalog) ListCourses(context.Context) ([]model.Course, error) {
	return f.courses, f.err
}

func (f *fakeCatalog) GetCourse(_ context.Context, _, userID string) (*service.CourseDetail, error) {
	f.gotUserID = userID
	return f.detail, f.err
}

func (f *fakeCatalog) GetPlayback(_ context.Context, _, _, userID string) (*service.Playback, error) {
	f.gotUserID = userID
	return f.playback, f.err
}

func (f *fakeCatalog) MyPurchases(_ context.Context, userID string) ([]model.Purchase, error) {
	f.gotUserID = userID
	return f.purchases, f.err
}
