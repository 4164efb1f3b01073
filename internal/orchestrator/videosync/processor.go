package videosync

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"
	"coursemart/internal/repository"
	"coursemart/internal/video"

	"github.com/rs/zerolog"
)

// Outcome is what the worker does with a job after one pass.
type Outcome int

const (
	// OutcomeDone acknowledges the job.
	OutcomeDone Outcome = iota
	// OutcomeRetry re-queues the job with a delay.
	OutcomeRetry
	// OutcomeFailed marks the lesson video errored and dead-letters the job.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeRetry:
		return "retry"
	default:
		return "failed"
	}
}

// Processor advances one video job per call.
type Processor struct {
	lessons   repository.LessonRepository
	providers *video.Registry
	logger    zerolog.Logger
}

func NewProcessor(lessons repository.LessonRepository, providers *video.Registry, logger zerolog.Logger) *Processor {
	return &Processor{lessons: lessons, providers: providers, logger: logger}
}

// Process checks whether the job's upload became a playable asset and records it on the lesson.
// The returned error explains a retry or failure and is nil when the job is done.
func (p *Processor) Process(ctx context.Context, job video.Job) (Outcome, error) {
	log := p.logger.With().Str("lesson_id", job.LessonID).Str("upload_id", job.UploadID).Int("attempt", job.Attempt).Logger()

	provider, err := p.providers.Get(job.Provider)
	if err != nil {
		return OutcomeFailed, err
	}

	lesson, err := p.lessons.GetByID(ctx, job.LessonID)
	if err != nil {
		return OutcomeRetry, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil || lesson.VideoUploadID != job.UploadID {
		log.Info().Msg("Lesson deleted or upload superseded; dropping job")
		p.discardUpload(ctx, provider, job, log)
		return OutcomeDone, nil
	}

	assetID, ready, err := provider.ResolveUpload(ctx, job.UploadID)
	if errors.Is(err, video.ErrUploadFailed) {
		return OutcomeFailed, err
	}
	if err != nil {
		return OutcomeRetry, fmt.Errorf("resolve upload: %w", err)
	}
	if !ready {
		return OutcomeRetry, errors.New("upload has not produced an asset yet")
	}

	asset, err := provider.GetAsset(ctx, assetID)
	if err != nil {
		return OutcomeRetry, fmt.Errorf("fetch asset %s: %w", assetID, err)
	}

	switch asset.Status {
	case video.StatusErrored:
		return OutcomeFailed, fmt.Errorf("asset %s errored: %s", assetID, asset.Message)
	case video.StatusProcessing:
		if lesson.VideoStatus != model.VideoStatusProcessing {
			v := currentVideo(lesson)
			v.Status = model.VideoStatusProcessing
			if err := p.lessons.UpdateVideo(ctx, lesson.ID, v); err != nil {
				log.Warn().Err(err).Msg("Failed to mark lesson video processing")
			}
		}
		return OutcomeRetry, fmt.Errorf("asset %s still processing", assetID)
	}

	if err := p.lessons.UpdateVideo(ctx, lesson.ID, model.LessonVideo{
		Provider:        provider.Name(),
		UploadID:        job.UploadID,
		AssetID:         assetID,
		PlaybackURL:     asset.PlaybackURL,
		Status:          model.VideoStatusReady,
		DurationSeconds: asset.DurationSeconds,
	}); err != nil {
		return OutcomeRetry, fmt.Errorf("record ready asset: %w", err)
	}
	log.Info().Str("asset_id", assetID).Int("duration_seconds", asset.DurationSeconds).Msg("Lesson video ready")

	if job.PreviousAssetID != "" && job.PreviousAssetID != assetID {
		if err := provider.DeleteAsset(ctx, job.PreviousAssetID); err != nil {
			log.Warn().Err(err).Str("asset_id", job.PreviousAssetID).Msg("Failed to delete replaced video asset")
		}
	}
	return OutcomeDone, nil
}

// Fail marks the lesson video errored, unless the job no longer owns the lesson's upload.
// The previous asset, if any, stays attached so the lesson keeps playing it.
func (p *Processor) Fail(ctx context.Context, job video.Job) error {
	lesson, err := p.lessons.GetByID(ctx, job.LessonID)
	if err != nil {
		return err
	}
	if lesson == nil || lesson.VideoUploadID != job.UploadID {
		return nil
	}
	v := currentVideo(lesson)
	v.Status = model.VideoStatusErrored
	return p.lessons.UpdateVideo(ctx, lesson.ID, v)
}

// discardUpload deletes the asset an orphaned upload produced, if it produced one.
func (p *Processor) discardUpload(ctx context.Context, provider video.Provider, job video.Job, log zerolog.Logger) {
	assetID, ready, err := provider.ResolveUpload(ctx, job.UploadID)
	if err != nil || !ready || assetID == "" {
		return
	}
	if err := provider.DeleteAsset(ctx, assetID); err != nil {
		log.Warn().Err(err).Str("asset_id", assetID).Msg("Failed to delete orphaned video asset")
	}
}

func currentVideo(l *model.Lesson) model.LessonVideo {
	return model.LessonVideo{
		Provider:        l.VideoProvider,
		UploadID:        l.VideoUploadID,
		AssetID:         l.VideoAssetID,
		PlaybackURL:     l.VideoPlaybackURL,
		Status:          l.VideoStatus,
		DurationSeconds: l.DurationSeconds,
	}
}
