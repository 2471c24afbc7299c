package domain

import "time"

// Job carries the requirement fields the match scorer consumes. Unset
// requirement fields mean "no requirement" and score full marks.
type Job struct {
	ID                int64      `gorm:"primaryKey"`
	Title             string     `gorm:"size:255;not null"`
	Description       string     `gorm:"type:text;not null"`
	RequiredSkills    StringList `gorm:"type:json"`
	MinYears          *int
	MaxYears          *int
	RequiredEducation EducationLevel `gorm:"size:16"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
