package handler

import (
	"context"
	"net/http"
	"testing"

	"coursemart/internal/api/v1/operation"
	"coursemart/internal/middleware"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noPublicURL(string) string { return "" }

func TestGetCourseAnonymousAndOwned(t *testing.T) {
	catalog := &fakeCatalog{detail: &service.CourseDetail{
		Course: &model.Course{ID: "c1", Slug: "go", PricePaise: 0, Currency: "INR"},
		Lessons: []model.Lesson{
			{ID: "l1", Position: 1, IsPreview: true, VideoProvider: "mux", VideoStatus: model.VideoStatusReady},
			{ID: "l2", Position: 2, VideoStatus: model.VideoStatusNone},
		},
		Owned: true,
	}}
	h := NewCatalogHandler(catalog, noPublicURL, testLogger())

	out, err := h.GetCourse(context.Background(), &operation.GetCourseInput{Slug: "go"})
	require.NoError(t, err)
	assert.Empty(t, catalog.gotUserID)
	assert.True(t, out.Body.IsFree)
	require.Len(t, out.Body.Lessons, 2)
	assert.True(t, out.Body.Lessons[0].HasVideo)
	assert.False(t, out.Body.Lessons[1].HasVideo)

	ctx := middleware.WithUser(context.Background(), &model.User{UserID: "u1"})
	out, err = h.GetCourse(ctx, &operation.GetCourseInput{Slug: "go"})
	require.NoError(t, err)
	assert.Equal(t, "u1", catalog.gotUserID)
	assert.True(t, out.Body.Owned)
}

func TestGetPlaybackErrors(t *testing.T) {
	catalog := &fakeCatalog{err: service.ErrForbidden}
	h := NewCatalogHandler(catalog, noPublicURL, testLogger())

	_, err := h.GetPlayback(context.Background(), &operation.GetPlaybackInput{Slug: "go", LessonID: "l2"})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	catalog.err = service.ErrCourseNotFound
	_, err = h.GetPlayback(context.Background(), &operation.GetPlaybackInput{Slug: "gone", LessonID: "l2"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestGetPlayback(t *testing.T) {
	catalog := &fakeCatalog{playback: &service.Playback{LessonID: "l1", Provider: "mux", PlaybackURL: "https://stream.mux.com/p.m3u8", DurationSeconds: 90}}
	h := NewCatalogHandler(catalog, noPublicURL, testLogger())

	out, err := h.GetPlayback(context.Background(), &operation.GetPlaybackInput{Slug: "go", LessonID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, "https://stream.mux.com/p.m3u8", out.Body.PlaybackURL)
	assert.Equal(t, 90, out.Body.DurationSeconds)
}
