package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ats-pipeline/domain"
)

// GORM-backed implementations of the domain repository interfaces.

type ResumeRepo struct {
	db *gorm.DB
}

func NewResumeRepo(db *gorm.DB) *ResumeRepo { return &ResumeRepo{db: db} }

func (r *ResumeRepo) Create(ctx context.Context, res *domain.UploadedResume) error {
	err := r.db.WithContext(ctx).Create(res).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateHash
	}
	return err
}

func (r *ResumeRepo) FindByID(ctx context.Context, id int64) (*domain.UploadedResume, error) {
	var res domain.UploadedResume
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &res, nil
}

func (r *ResumeRepo) FindByHash(ctx context.Context, hash string) (*domain.UploadedResume, error) {
	var res domain.UploadedResume
	err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&res).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &res, nil
}

func (r *ResumeRepo) UpdateStatus(ctx context.Context, id int64, status domain.ResumeStatus) error {
	return r.db.WithContext(ctx).Model(&domain.UploadedResume{}).
		Where("id = ?", id).
		Update("status", status).Error
}

type CandidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) *CandidateRepo { return &CandidateRepo{db: db} }

func (r *CandidateRepo) Save(ctx context.Context, c *domain.Candidate) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CandidateRepo) FindByID(ctx context.Context, id int64) (*domain.Candidate, error) {
	var c domain.Candidate
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &c, nil
}

func (r *CandidateRepo) FindByIDs(ctx context.Context, ids []int64) ([]domain.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Candidate
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CandidateRepo) FindByResumeID(ctx context.Context, resumeID int64) (*domain.Candidate, error) {
	var c domain.Candidate
	err := r.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&c).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &c, nil
}

// SetVector writes the vector-index reference and the generated summary in
// one update so the two fields stay set together or both null.
func (r *CandidateRepo) SetVector(ctx context.Context, id int64, vectorID, summary string) error {
	return r.db.WithContext(ctx).Model(&domain.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"vector_id":  vectorID,
			"summary":    summary,
			"updated_at": time.Now(),
		}).Error
}

func (r *CandidateRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Candidate{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo { return &JobRepo{db: db} }

func (r *JobRepo) Create(ctx context.Context, j *domain.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *JobRepo) FindByID(ctx context.Context, id int64) (*domain.Job, error) {
	var j domain.Job
	if err := r.db.WithContext(ctx).First(&j, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &j, nil
}

type ApplicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

func (r *ApplicationRepo) Create(ctx context.Context, a *domain.JobApplication) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id int64) (*domain.JobApplication, error) {
	var a domain.JobApplication
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &a, nil
}

// SaveScore overwrites the score fields of an existing application row.
func (r *ApplicationRepo) SaveScore(ctx context.Context, a *domain.JobApplication) error {
	return r.db.WithContext(ctx).Model(&domain.JobApplication{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"total_score":      a.TotalScore,
			"semantic_score":   a.SemanticScore,
			"skill_score":      a.SkillScore,
			"experience_score": a.ExperienceScore,
			"education_score":  a.EducationScore,
			"reasons":          a.Reasons,
			"calculated_at":    a.CalculatedAt,
		}).Error
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
