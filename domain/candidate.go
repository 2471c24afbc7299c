package domain

import (
	"strings"
	"time"
)

// Gender is the canonical three-value enumeration for the free-text gender
// values the AI extraction returns.
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderUnknown Gender = "UNKNOWN"
)

// NormalizeGender maps loosely-typed AI output onto the canonical enum.
// Unrecognized values become UNKNOWN rather than an error.
func NormalizeGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man", "laki-laki", "pria", "男", "男性":
		return GenderMale
	case "female", "f", "woman", "perempuan", "wanita", "女", "女性":
		return GenderFemale
	}
	return GenderUnknown
}

// EducationLevel is an ordinal scale used by the match scorer.
type EducationLevel string

const (
	EducationUnknown   EducationLevel = ""
	EducationNone      EducationLevel = "NONE"
	EducationAssociate EducationLevel = "ASSOCIATE"
	EducationBachelor  EducationLevel = "BACHELOR"
	EducationMaster    EducationLevel = "MASTER"
	EducationDoctorate EducationLevel = "DOCTORATE"
)

// NormalizeEducation maps free-text degree names onto the ordinal scale.
func NormalizeEducation(raw string) EducationLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return EducationUnknown
	case strings.Contains(s, "phd") || strings.Contains(s, "ph.d") ||
		strings.Contains(s, "doctor") || strings.Contains(s, "博士"):
		return EducationDoctorate
	case strings.Contains(s, "master") || strings.Contains(s, "msc") ||
		strings.Contains(s, "mba") || strings.Contains(s, "硕士"):
		return EducationMaster
	case strings.Contains(s, "bachelor") || strings.Contains(s, "bsc") ||
		strings.Contains(s, "undergraduate") || strings.Contains(s, "本科"):
		return EducationBachelor
	case strings.Contains(s, "associate") || strings.Contains(s, "diploma") ||
		strings.Contains(s, "大专"):
		return EducationAssociate
	case s == "none" || s == "no degree" || s == "n/a":
		return EducationNone
	}
	return EducationUnknown
}

// Rank returns the ordinal position of the level, or -1 when unknown.
func (e EducationLevel) Rank() int {
	switch e {
	case EducationNone:
		return 0
	case EducationAssociate:
		return 1
	case EducationBachelor:
		return 2
	case EducationMaster:
		return 3
	case EducationDoctorate:
		return 4
	}
	return -1
}

// Candidate is the structured record produced from one uploaded resume.
// Re-parsing the same resume updates the row in place; there is at most one
// candidate per resume. VectorID and Summary are written together by the
// vectorization step, or are both null.
type Candidate struct {
	ID               int64          `gorm:"primaryKey"`
	ResumeID         int64          `gorm:"uniqueIndex;not null"`
	Name             string         `gorm:"size:255"`
	Gender           Gender         `gorm:"size:16;not null;default:'UNKNOWN'"`
	Phone            string         `gorm:"size:64"`
	Email            string         `gorm:"size:255"`
	HighestEducation EducationLevel `gorm:"size:16"`
	School           string         `gorm:"size:255"`
	Major            string         `gorm:"size:255"`
	WorkYears        *int
	CurrentPosition  string      `gorm:"size:255"`
	CurrentCompany   string      `gorm:"size:255"`
	Skills           StringList  `gorm:"type:json"`
	WorkHistory      HistoryList `gorm:"type:json"`
	ProjectHistory   HistoryList `gorm:"type:json"`
	SelfSummary      string      `gorm:"type:text"`
	RawAIResponse    string      `gorm:"type:longtext"`
	VectorID         *string     `gorm:"size:64"`
	Summary          *string     `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExtractedCandidate is the loosely-typed shape the AI extraction returns
// before normalization into a Candidate.
type ExtractedCandidate struct {
	Name             string              `json:"name"`
	Gender           string              `json:"gender"`
	Phone            string              `json:"phone"`
	Email            string              `json:"email"`
	HighestEducation string              `json:"highest_education"`
	School           string              `json:"school"`
	Major            string              `json:"major"`
	WorkYears        *int                `json:"work_years"`
	CurrentPosition  string              `json:"current_position"`
	CurrentCompany   string              `json:"current_company"`
	Skills           []string            `json:"skills"`
	WorkHistory      []map[string]string `json:"work_history"`
	ProjectHistory   []map[string]string `json:"project_history"`
	SelfSummary      string              `json:"self_summary"`
}
