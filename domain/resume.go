package domain

import (
	"fmt"
	"time"
)

// ResumeStatus is the lifecycle of an uploaded resume file.
type ResumeStatus string

const (
	ResumeStatusQueued    ResumeStatus = "QUEUED"
	ResumeStatusParsing   ResumeStatus = "PARSING"
	ResumeStatusCompleted ResumeStatus = "COMPLETED"
	ResumeStatusFailed    ResumeStatus = "FAILED"
)

// ParseResumeStatus rejects unknown values at the persistence boundary.
func ParseResumeStatus(s string) (ResumeStatus, error) {
	switch ResumeStatus(s) {
	case ResumeStatusQueued, ResumeStatusParsing, ResumeStatusCompleted, ResumeStatusFailed:
		return ResumeStatus(s), nil
	}
	return "", fmt.Errorf("unknown resume status %q", s)
}

type UploadedResume struct {
	ID           int64        `gorm:"primaryKey"`
	OwnerID      int64        `gorm:"index;not null"`
	ContentHash  string       `gorm:"size:32;uniqueIndex;not null"`
	StoragePath  string       `gorm:"size:512;not null"`
	DeclaredType string       `gorm:"size:128"`
	SniffedType  string       `gorm:"size:128"`
	SizeBytes    int64        `gorm:"not null"`
	Status       ResumeStatus `gorm:"size:16;not null;default:'QUEUED'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
