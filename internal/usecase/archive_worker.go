package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/logger"
	"PriceGate/pkg/queue"
)

const msgTypeObservationAccepted = "observation.accepted"

// QueuedArchive wraps a persistent Archive with a Redis job queue so that
// ingestion never blocks on the archive store. Record enqueues; the
// ObservationArchiver job consumes and writes. Reads go straight through.
type QueuedArchive struct {
	inner drepo.Archive
	q     queue.QueueService
	log   *logger.Logger
}

func NewQueuedArchive(lgr *logger.Logger, inner drepo.Archive, q queue.QueueService) *QueuedArchive {
	return &QueuedArchive{inner: inner, q: q, log: lgr}
}

func (a *QueuedArchive) Record(ctx context.Context, obs models.ArchivedObservation) error {
	if err := a.q.PublishMessage(ctx, msgTypeObservationAccepted, obs); err != nil {
		// fall back to a direct write rather than lose the observation
		a.log.Warn("archive enqueue failed, writing directly", logger.Error(err))
		return a.inner.Record(ctx, obs)
	}
	return nil
}

func (a *QueuedArchive) History(ctx context.Context, feed models.FeedID, from, to time.Time, limit int) ([]models.ArchivedObservation, error) {
	return a.inner.History(ctx, feed, from, to, limit)
}

func (a *QueuedArchive) Health(ctx context.Context) error {
	return a.inner.Health(ctx)
}

func (a *QueuedArchive) Close() error {
	return a.inner.Close()
}

// ObservationArchiver is the queue job that drains accepted observations
// into the persistent archive.
type ObservationArchiver struct {
	archive drepo.Archive
	log     *logger.Logger
}

func NewObservationArchiver(lgr *logger.Logger, archive drepo.Archive) *ObservationArchiver {
	return &ObservationArchiver{archive: archive, log: lgr}
}

func (j *ObservationArchiver) Name() string { return "observation-archiver" }

func (j *ObservationArchiver) Type() string { return msgTypeObservationAccepted }

// ArchiveWorker owns the queue consumer lifecycle for observation archiving.
type ArchiveWorker struct {
	q *queue.RedisQueue
}

func NewArchiveWorker(q *queue.RedisQueue) *ArchiveWorker {
	return &ArchiveWorker{q: q}
}

func (w *ArchiveWorker) Start() error {
	if err := w.q.Start(); err != nil {
		return err
	}
	w.q.StartRetryProcessor()
	return nil
}

func (w *ArchiveWorker) Stop(ctx context.Context) error {
	return w.q.Stop(ctx)
}

func (j *ObservationArchiver) Handle(ctx context.Context, payload interface{}) error {
	obs, err := queue.ParsePayload[models.ArchivedObservation](payload)
	if err != nil {
		return fmt.Errorf("parse archived observation: %w", err)
	}
	if err := j.archive.Record(ctx, *obs); err != nil {
		return fmt.Errorf("record observation %s: %w", obs.FeedID.String(), err)
	}
	j.log.Debug("observation archived", logger.String("feed_id", obs.FeedID.String()))
	return nil
}
