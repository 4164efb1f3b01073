package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coursemart/internal/model"
	"coursemart/internal/repository"
	"coursemart/internal/video"

	"github.com/rs/zerolog"
)

// JobQueue is the queue video jobs are sent to.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// LessonService manages course lessons, their order and their hosted videos.
type LessonService interface {
	ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error)
	GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error)
	CreateLesson(ctx context.Context, l *model.Lesson) error
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	// DeleteLesson removes the lesson, closes the position gap and deletes its video.
	DeleteLesson(ctx context.Context, lessonID string) error
	// ReorderLessons places lessonIDs[i] at position i+1.
	ReorderLessons(ctx context.Context, courseID string, lessonIDs []string) error
	// StartVideoUpload opens a direct upload and queues the job that waits for the asset.
	StartVideoUpload(ctx context.Context, lessonID, provider, filename string, sizeBytes int64) (*video.Upload, error)
	RemoveVideo(ctx context.Context, lessonID string) error
}

type lessonService struct {
	lessons   repository.LessonRepository
	courses   repository.CourseRepository
	providers *video.Registry
	queue     JobQueue
	queueName string
	logger    zerolog.Logger
}

func NewLessonService(
	lessons repository.LessonRepository,
	courses repository.CourseRepository,
	providers *video.Registry,
	queue JobQueue,
	queueName string,
	logger zerolog.Logger,
) LessonService {
	return &lessonService{
		lessons:   lessons,
		courses:   courses,
		providers: providers,
		queue:     queue,
		queueName: queueName,
		logger:    logger.With().Str("service", "LessonService").Logger(),
	}
}

func (s *lessonService) ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return s.lessons.ListByCourse(ctx, courseID)
}

func (s *lessonService) GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLessonNotFound
	}
	return l, nil
}

func (s *lessonService) CreateLesson(ctx context.Context, l *model.Lesson) error {
	if err := s.lessons.Create(ctx, l); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error().Err(err).Str("course_id", l.CourseID).Msg("Failed to create lesson")
		return err
	}
	return nil
}

func (s *lessonService) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	if err := s.lessons.Update(ctx, l); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLessonNotFound
		}
		s.logger.Error().Err(err).Str("lesson_id", l.ID).Msg("Failed to update lesson")
		return err
	}
	return nil
}

func (s *lessonService) DeleteLesson(ctx context.Context, lessonID string) error {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrLessonNotFound
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLessonNotFound
		}
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("Failed to delete lesson")
		return err
	}
	s.deleteAssetQuietly(ctx, lesson.VideoProvider, lesson.VideoAssetID, lessonID)
	return nil
}

func (s *lessonService) ReorderLessons(ctx context.Context, courseID string, lessonIDs []string) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}
	if err := s.lessons.Reorder(ctx, courseID, lessonIDs); err != nil {
		if errors.Is(err, repository.ErrInvalidOrder) {
			return ErrInvalidLessonOrder
		}
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to reorder lessons")
		return err
	}
	return nil
}

func (s *lessonService) StartVideoUpload(ctx context.Context, lessonID, providerName, filename string, sizeBytes int64) (*video.Upload, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}
	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	upload, err := provider.CreateUpload(ctx, video.UploadRequest{LessonID: lessonID, Filename: filename, SizeBytes: sizeBytes})
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Str("provider", provider.Name()).Msg("Failed to create video upload")
		return nil, fmt.Errorf("create %s upload: %w", provider.Name(), err)
	}

	// The current asset keeps playing until the new one is ready; the worker deletes it afterwards.
	// An asset on another provider is handed over the same way, so the job records its provider too.
	job := video.Job{
		LessonID:        lessonID,
		Provider:        provider.Name(),
		UploadID:        upload.ID,
		PreviousAssetID: lesson.VideoAssetID,
	}
	if lesson.VideoProvider != "" && lesson.VideoProvider != provider.Name() && lesson.VideoAssetID != "" {
		s.deleteAssetQuietly(ctx, lesson.VideoProvider, lesson.VideoAssetID, lessonID)
		job.PreviousAssetID = ""
	}

	if err := s.lessons.UpdateVideo(ctx, lessonID, model.LessonVideo{
		Provider:        provider.Name(),
		UploadID:        upload.ID,
		AssetID:         job.PreviousAssetID,
		PlaybackURL:     keepIf(job.PreviousAssetID != "", lesson.VideoPlaybackURL),
		Status:          model.VideoStatusUploading,
		DurationSeconds: lesson.DurationSeconds,
	}); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("Failed to record video upload")
		return nil, err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal video job: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Str("queue", s.queueName).Msg("Failed to enqueue video job")
		return nil, err
	}

	s.logger.Info().Str("lesson_id", lessonID).Str("provider", provider.Name()).Str("upload_id", upload.ID).Msg("Video upload started")
	return upload, nil
}

func (s *lessonService) RemoveVideo(ctx context.Context, lessonID string) error {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrLessonNotFound
	}
	if lesson.VideoAssetID != "" {
		provider, err := s.providers.Get(lesson.VideoProvider)
		if err != nil {
			return err
		}
		if err := provider.DeleteAsset(ctx, lesson.VideoAssetID); err != nil {
			s.logger.Error().Err(err).Str("lesson_id", lessonID).Str("provider", provider.Name()).Msg("Failed to delete video asset")
			return fmt.Errorf("delete %s asset: %w", provider.Name(), err)
		}
	}
	// Clearing the upload id also orphans any job still waiting on an upload.
	return s.lessons.UpdateVideo(ctx, lessonID, model.LessonVideo{Status: model.VideoStatusNone})
}

// deleteAssetQuietly removes an asset and only logs failures.
func (s *lessonService) deleteAssetQuietly(ctx context.Context, providerName, assetID, lessonID string) {
	if assetID == "" {
		return
	}
	provider, err := s.providers.Get(providerName)
	if err == nil {
		err = provider.DeleteAsset(ctx, assetID)
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("lesson_id", lessonID).
			Str("provider", providerName).
			Str("asset_id", assetID).
			Msg("Failed to delete video asset")
	}
}

func keepIf(cond bool, v string) string {
	if cond {
		return v
	}
	return ""
}
