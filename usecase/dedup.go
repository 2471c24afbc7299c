package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// DedupGate admits uploads at most once per distinct content hash. The
// cache is a fast first level only; the durable store's unique index is the
// final arbiter under concurrent uploads of the same file.
type DedupGate struct {
	resumes  domain.ResumeRepository
	cache    domain.HashCache
	store    domain.ObjectStore
	queue    domain.TaskPublisher
	status   domain.TaskStatusStore
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewDedupGate(
	resumes domain.ResumeRepository,
	cache domain.HashCache,
	store domain.ObjectStore,
	queue domain.TaskPublisher,
	status domain.TaskStatusStore,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DedupGate {
	return &DedupGate{
		resumes:  resumes,
		cache:    cache,
		store:    store,
		queue:    queue,
		status:   status,
		cacheTTL: cacheTTL,
		log:      logger,
	}
}

type AdmitInput struct {
	Data         []byte
	DeclaredType string
	OwnerID      int64
}

type AdmitResult struct {
	ResumeID   int64  `json:"resumeId"`
	TaskID     string `json:"taskId,omitempty"`
	Duplicated bool   `json:"duplicated"`
}

// Admit hashes the upload, short-circuits on a known hash, and otherwise
// persists the resume and publishes an ingestion task. A duplicate upload
// is a success with Duplicated=true, never an error.
func (g *DedupGate) Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error) {
	sum := md5.Sum(in.Data)
	hash := hex.EncodeToString(sum[:])

	if id, ok, err := g.cache.GetResumeID(ctx, hash); err != nil {
		g.log.Warn("dedup cache lookup failed, falling through to store",
			zap.String("hash", hash), zap.Error(err))
	} else if ok {
		return &AdmitResult{ResumeID: id, Duplicated: true}, nil
	}

	if existing, err := g.resumes.FindByHash(ctx, hash); err == nil {
		g.backfillCache(ctx, hash, existing.ID)
		return &AdmitResult{ResumeID: existing.ID, Duplicated: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("dedup store lookup failed: %w", err)
	}

	sniffed := mimetype.Detect(in.Data).String()

	path, err := g.store.Save(ctx, hash, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	resume := &domain.UploadedResume{
		OwnerID:      in.OwnerID,
		ContentHash:  hash,
		StoragePath:  path,
		DeclaredType: in.DeclaredType,
		SniffedType:  sniffed,
		SizeBytes:    int64(len(in.Data)),
		Status:       domain.ResumeStatusQueued,
	}
	if err := g.resumes.Create(ctx, resume); err != nil {
		if errors.Is(err, domain.ErrDuplicateHash) {
			// Lost the race to a concurrent upload of the same bytes.
			existing, ferr := g.resumes.FindByHash(ctx, hash)
			if ferr != nil {
				return nil, fmt.Errorf("duplicate hash but row not readable: %w", ferr)
			}
			g.backfillCache(ctx, hash, existing.ID)
			return &AdmitResult{ResumeID: existing.ID, Duplicated: true}, nil
		}
		return nil, fmt.Errorf("failed to persist resume: %w", err)
	}

	g.backfillCache(ctx, hash, resume.ID)

	taskID := uuid.NewString()
	task := domain.IngestionTask{
		TaskID:      taskID,
		ResumeID:    resume.ID,
		OwnerID:     in.OwnerID,
		ContentHash: hash,
		RetryCount:  0,
	}
	if err := g.queue.Publish(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingestion task: %w", err)
	}

	if err := g.status.Put(ctx, taskID, domain.TaskStatusRecord{
		Status:   domain.TaskStatusQueued,
		ResumeID: resume.ID,
		Progress: 0,
	}); err != nil {
		g.log.Warn("failed to write task status", zap.String("task_id", taskID), zap.Error(err))
	}

	g.log.Info("resume admitted",
		zap.Int64("resume_id", resume.ID),
		zap.String("task_id", taskID),
		zap.String("hash", hash))

	return &AdmitResult{ResumeID: resume.ID, TaskID: taskID, Duplicated: false}, nil
}

func (g *DedupGate) backfillCache(ctx context.Context, hash string, id int64) {
	if err := g.cache.SetResumeID(ctx, hash, id, g.cacheTTL); err != nil {
		g.log.Warn("failed to update dedup cache", zap.String("hash", hash), zap.Error(err))
	}
}
