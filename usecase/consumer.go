package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// Consumer processes one ingestion task per delivery. At-least-once
// delivery is turned into effectively-once work by the shared idempotency
// marker; the queue layer owns ack/retry/dead-letter based on the returned
// error.
type Consumer struct {
	resumes    domain.ResumeRepository
	store      domain.ObjectStore
	extraction *Extraction
	candidates *CandidateService
	vectorizer *Vectorizer
	marker     domain.IdempotencyMarker
	status     domain.TaskStatusStore
	markerTTL  time.Duration
	log        *zap.Logger
}

func NewConsumer(
	resumes domain.ResumeRepository,
	store domain.ObjectStore,
	extraction *Extraction,
	candidates *CandidateService,
	vectorizer *Vectorizer,
	marker domain.IdempotencyMarker,
	status domain.TaskStatusStore,
	markerTTL time.Duration,
	logger *zap.Logger,
) *Consumer {
	return &Consumer{
		resumes:    resumes,
		store:      store,
		extraction: extraction,
		candidates: candidates,
		vectorizer: vectorizer,
		marker:     marker,
		status:     status,
		markerTTL:  markerTTL,
		log:        logger,
	}
}

func processedKey(resumeID int64) string {
	return fmt.Sprintf("ats:ingest:processed:%d", resumeID)
}

// Handle runs the full pipeline for one task: idempotency check, status
// tracking, extraction, persistence, vectorization. Steps execute strictly
// in this order; there is no cross-task ordering.
func (c *Consumer) Handle(ctx context.Context, task domain.IngestionTask) error {
	acquired, err := c.marker.Acquire(ctx, processedKey(task.ResumeID), c.markerTTL)
	if err != nil {
		// The marker was never acquired, so there is nothing to release;
		// the failure still has to reach the status record.
		return c.fail(ctx, task, 0, false, fmt.Errorf("idempotency marker unavailable: %w", err))
	}
	if !acquired {
		c.log.Info("duplicate delivery, skipping",
			zap.String("task_id", task.TaskID),
			zap.Int64("resume_id", task.ResumeID))
		return nil
	}

	c.putStatus(ctx, task.TaskID, domain.TaskStatusRecord{
		Status:   domain.TaskStatusProcessing,
		ResumeID: task.ResumeID,
		Progress: 10,
	})

	resume, err := c.resumes.FindByID(ctx, task.ResumeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A missing row is a permanent condition; retrying cannot
			// bring it back.
			return c.fail(ctx, task, 0, true, fmt.Errorf("%w: resume %d", domain.ErrNotFound, task.ResumeID))
		}
		return c.fail(ctx, task, 0, true, fmt.Errorf("failed to load resume: %w", err))
	}

	if err := c.resumes.UpdateStatus(ctx, resume.ID, domain.ResumeStatusParsing); err != nil {
		return c.fail(ctx, task, resume.ID, true, fmt.Errorf("failed to update resume status: %w", err))
	}

	data, err := c.store.Load(ctx, resume.StoragePath)
	if err != nil {
		return c.fail(ctx, task, resume.ID, true, fmt.Errorf("failed to load stored file: %w", err))
	}

	mediaType := resume.SniffedType
	if mediaType == "" {
		mediaType = resume.DeclaredType
	}

	extracted, raw, err := c.extraction.Run(ctx, data, mediaType)
	if err != nil {
		return c.fail(ctx, task, resume.ID, true, err)
	}

	cand, err := c.candidates.UpsertFromExtraction(ctx, resume.ID, extracted, raw)
	if err != nil {
		return c.fail(ctx, task, resume.ID, true, err)
	}

	// Vectorization failures are isolated; the candidate just stays out of
	// semantic results until retried.
	c.vectorizer.Vectorize(ctx, cand)

	if err := c.resumes.UpdateStatus(ctx, resume.ID, domain.ResumeStatusCompleted); err != nil {
		c.log.Warn("failed to flip resume to COMPLETED",
			zap.Int64("resume_id", resume.ID), zap.Error(err))
	}

	c.putStatus(ctx, task.TaskID, domain.TaskStatusRecord{
		Status:      domain.TaskStatusCompleted,
		ResumeID:    resume.ID,
		CandidateID: cand.ID,
		Progress:    100,
	})

	c.log.Info("ingestion task completed",
		zap.String("task_id", task.TaskID),
		zap.Int64("resume_id", resume.ID),
		zap.Int64("candidate_id", cand.ID))
	return nil
}

// fail records the failure and, when this attempt held the idempotency
// marker, releases it so a retry delivery can run. The FAILED status record
// stands until the next attempt overwrites it.
func (c *Consumer) fail(ctx context.Context, task domain.IngestionTask, resumeID int64, releaseMarker bool, err error) error {
	c.putStatus(ctx, task.TaskID, domain.TaskStatusRecord{
		Status:       domain.TaskStatusFailed,
		ResumeID:     task.ResumeID,
		ErrorMessage: err.Error(),
		Progress:     0,
	})

	if resumeID != 0 {
		if uerr := c.resumes.UpdateStatus(ctx, resumeID, domain.ResumeStatusFailed); uerr != nil {
			c.log.Warn("failed to flip resume to FAILED",
				zap.Int64("resume_id", resumeID), zap.Error(uerr))
		}
	}

	if releaseMarker {
		if rerr := c.marker.Release(ctx, processedKey(task.ResumeID)); rerr != nil {
			c.log.Warn("failed to release idempotency marker",
				zap.Int64("resume_id", task.ResumeID), zap.Error(rerr))
		}
	}

	c.log.Error("ingestion task failed",
		zap.String("task_id", task.TaskID),
		zap.Int64("resume_id", task.ResumeID),
		zap.Int("retry_count", task.RetryCount),
		zap.Bool("permanent", domain.IsPermanent(err)),
		zap.Error(err))
	return err
}

func (c *Consumer) putStatus(ctx context.Context, taskID string, rec domain.TaskStatusRecord) {
	if err := c.status.Put(ctx, taskID, rec); err != nil {
		c.log.Warn("failed to write task status",
			zap.String("task_id", taskID), zap.Error(err))
	}
}
