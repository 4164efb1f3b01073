package videosync

import (
	"context"
	"encoding/json"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/pgmq"
	"coursemart/internal/video"

	"github.com/rs/zerolog"
)

// visibilitySec hides a read message from other workers while it is processed.
const visibilitySec = 120

// Queue is the pgmq surface the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	SendWithDelay(ctx context.Context, queue string, payload []byte, delaySec int) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
	Metrics(ctx context.Context, queue string) (int64, error)
}

// Worker drains the video queue.
type Worker struct {
	queue          Queue
	processor      *Processor
	queueName      string
	dlqName        string
	pollTimeoutSec int
	pollMaxMsg     int
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	logger         zerolog.Logger
}

func NewWorker(cfg *config.Config, queue Queue, processor *Processor, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:          queue,
		processor:      processor,
		queueName:      cfg.VideoQueueName,
		dlqName:        cfg.VideoDeadLetterQueueName,
		pollTimeoutSec: cfg.VideoPollTimeoutSec,
		pollMaxMsg:     max(cfg.VideoPollMaxMsg, 1),
		maxAttempts:    max(cfg.VideoMaxAttempts, 1),
		backoffInitial: time.Duration(cfg.VideoBackoffInitialSec) * time.Second,
		backoffMax:     time.Duration(cfg.VideoBackoffMaxSec) * time.Second,
		logger:         logger.With().Str("orchestrator", "video").Logger(),
	}
}

// Run starts the video orchestrator and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.queueName).Str("dlq", w.dlqName).Msg("Starting video orchestrator")
	w.logBacklog(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down video orchestrator")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, w.queueName, visibilitySec, w.pollTimeoutSec, w.pollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading video queue")
			sleepCtx(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	var job video.Job
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.LessonID == "" || job.UploadID == "" {
		log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Malformed video job; deleting message")
		w.ack(ctx, msg, log)
		return
	}
	log = log.With().Str("lesson_id", job.LessonID).Str("provider", job.Provider).Int("attempt", job.Attempt).Logger()

	outcome, err := w.processor.Process(ctx, job)
	if outcome == OutcomeRetry && job.Attempt+1 >= w.maxAttempts {
		log.Warn().Err(err).Int("max_attempts", w.maxAttempts).Msg("Exhausted video job attempts")
		outcome = OutcomeFailed
	}

	switch outcome {
	case OutcomeDone:
		w.ack(ctx, msg, log)
	case OutcomeRetry:
		next := job
		next.Attempt++
		delay := w.backoff(job.Attempt)
		payload, _ := json.Marshal(next)
		if sendErr := w.queue.SendWithDelay(ctx, w.queueName, payload, int(delay/time.Second)); sendErr != nil {
			// Leave the original message; it reappears after the visibility timeout.
			log.Error().Err(sendErr).Msg("Failed to re-queue video job")
			return
		}
		log.Debug().Err(err).Dur("delay", delay).Msg("Video not ready; re-queued")
		w.ack(ctx, msg, log)
	case OutcomeFailed:
		if failErr := w.processor.Fail(ctx, job); failErr != nil {
			log.Error().Err(failErr).Msg("Failed to mark lesson video errored")
		}
		if dlqErr := w.queue.Send(ctx, w.dlqName, msg.Data); dlqErr != nil {
			log.Error().Err(dlqErr).Str("dlq", w.dlqName).Msg("Failed to send message to dead-letter queue")
		}
		w.ack(ctx, msg, log)
		log.Warn().Err(err).Msg("Video job failed; moved to DLQ")
	}
}

// logBacklog reports how many jobs are waiting and how many have been dead-lettered.
func (w *Worker) logBacklog(ctx context.Context) {
	pending, err := w.queue.Metrics(ctx, w.queueName)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Could not read video queue depth")
		return
	}
	dead, err := w.queue.Metrics(ctx, w.dlqName)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Could not read video DLQ depth")
		return
	}
	evt := w.logger.Info()
	if dead > 0 {
		evt = w.logger.Warn()
	}
	evt.Int64("pending", pending).Int64("dead_lettered", dead).Msg("Video queue backlog")
}

func (w *Worker) ack(ctx context.Context, msg *pgmq.Message, log zerolog.Logger) {
	if err := w.queue.Delete(ctx, w.queueName, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting video message")
	}
}

// backoff doubles from the initial delay on every attempt, capped at the max.
func (w *Worker) backoff(attempt int) time.Duration {
	d := w.backoffInitial
	for i := 0; i < attempt && d < w.backoffMax; i++ {
		d *= 2
	}
	if d > w.backoffMax {
		d = w.backoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
