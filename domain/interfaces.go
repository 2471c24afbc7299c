package domain

import (
	"context"
	"time"
)

// ResumeRepository persists uploaded resume rows. The unique index on the
// content hash is the final arbiter for deduplication.
type ResumeRepository interface {
	Create(ctx context.Context, r *UploadedResume) error
	FindByID(ctx context.Context, id int64) (*UploadedResume, error)
	FindByHash(ctx context.Context, hash string) (*UploadedResume, error)
	UpdateStatus(ctx context.Context, id int64, status ResumeStatus) error
}

// CandidateRepository persists structured candidate records.
type CandidateRepository interface {
	Save(ctx context.Context, c *Candidate) error
	FindByID(ctx context.Context, id int64) (*Candidate, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Candidate, error)
	FindByResumeID(ctx context.Context, resumeID int64) (*Candidate, error)
	SetVector(ctx context.Context, id int64, vectorID, summary string) error
	Delete(ctx context.Context, id int64) error
}

type JobRepository interface {
	Create(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id int64) (*Job, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *JobApplication) error
	FindByID(ctx context.Context, id int64) (*JobApplication, error)
	SaveScore(ctx context.Context, a *JobApplication) error
}

// HashCache is the fast dedup layer in front of the durable store. It is an
// optimization only; a cache miss falls through to the unique index.
type HashCache interface {
	GetResumeID(ctx context.Context, hash string) (int64, bool, error)
	SetResumeID(ctx context.Context, hash string, id int64, ttl time.Duration) error
}

// IdempotencyMarker is an atomic set-if-absent flag shared across worker
// instances. Acquire returns false when the key is already held.
type IdempotencyMarker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type TaskStatusStore interface {
	Put(ctx context.Context, taskID string, rec TaskStatusRecord) error
	Get(ctx context.Context, taskID string) (*TaskStatusRecord, error)
}

type TaskPublisher interface {
	Publish(ctx context.Context, task IngestionTask) error
}

// ObjectStore keeps the raw uploaded bytes and returns a storage location.
type ObjectStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
	Load(ctx context.Context, path string) ([]byte, error)
}

// TextExtractor converts raw document bytes to plain text for one media type.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// AIExtractor turns plain resume text into structured fields. The raw model
// response is returned verbatim for audit storage.
type AIExtractor interface {
	ExtractCandidate(ctx context.Context, text string) (*ExtractedCandidate, string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CandidateVector is the payload stored in the vector index. Name is kept
// redundantly so search results render without a join.
type CandidateVector struct {
	CandidateID int64
	Name        string
	Vector      []float32
}

// VectorHit is one nearest-neighbor result, similarity in [0,1].
type VectorHit struct {
	CandidateID int64
	Name        string
	Similarity  float64
}

// VectorIndex is the consumed contract of the external similarity index.
// Upsert replaces any existing vector for the candidate.
type VectorIndex interface {
	Upsert(ctx context.Context, v CandidateVector) error
	Search(ctx context.Context, vector []float32, topK int) ([]VectorHit, error)
	Delete(ctx context.Context, candidateID int64) error
}
