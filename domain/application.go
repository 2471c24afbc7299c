package domain

import "time"

// JobApplication ties a candidate to a job and carries the persisted match
// score. Recalculation overwrites the score fields, never appends.
type JobApplication struct {
	ID              int64 `gorm:"primaryKey"`
	JobID           int64 `gorm:"index;not null"`
	CandidateID     int64 `gorm:"index;not null"`
	TotalScore      *float64
	SemanticScore   *float64
	SkillScore      *float64
	ExperienceScore *float64
	EducationScore  *float64
	Reasons         StringList `gorm:"type:json"`
	CalculatedAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MatchResult is the user-facing score result for one application.
type MatchResult struct {
	ApplicationID int64          `json:"applicationId"`
	JobID         int64          `json:"jobId"`
	CandidateID   int64          `json:"candidateId"`
	TotalScore    float64        `json:"totalScore"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Reasons       []string       `json:"reasons"`
	CalculatedAt  time.Time      `json:"calculatedAt"`
}

// ScoreBreakdown holds the four weighted sub-scores, each 0-100.
type ScoreBreakdown struct {
	SemanticScore   float64 `json:"semanticScore"`
	SkillScore      float64 `json:"skillScore"`
	ExperienceScore float64 `json:"experienceScore"`
	EducationScore  float64 `json:"educationScore"`
}
