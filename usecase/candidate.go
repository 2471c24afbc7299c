package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// CandidateService owns candidate persistence and the normalization of
// loosely-typed AI output into canonical enumerations.
type CandidateService struct {
	candidates domain.CandidateRepository
	index      domain.VectorIndex
	log        *zap.Logger
}

func NewCandidateService(candidates domain.CandidateRepository, index domain.VectorIndex, logger *zap.Logger) *CandidateService {
	return &CandidateService{candidates: candidates, index: index, log: logger}
}

// UpsertFromExtraction creates or updates the single candidate row for a
// resume. Re-parsing updates in place and clears the vector fields until
// re-vectorization runs.
func (s *CandidateService) UpsertFromExtraction(ctx context.Context, resumeID int64, ex *domain.ExtractedCandidate, raw string) (*domain.Candidate, error) {
	cand, err := s.candidates.FindByResumeID(ctx, resumeID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("candidate lookup failed: %w", err)
		}
		cand = &domain.Candidate{ResumeID: resumeID}
	}

	cand.Name = strings.TrimSpace(ex.Name)
	cand.Gender = domain.NormalizeGender(ex.Gender)
	cand.Phone = strings.TrimSpace(ex.Phone)
	cand.Email = strings.TrimSpace(ex.Email)
	cand.HighestEducation = domain.NormalizeEducation(ex.HighestEducation)
	cand.School = strings.TrimSpace(ex.School)
	cand.Major = strings.TrimSpace(ex.Major)
	cand.WorkYears = ex.WorkYears
	cand.CurrentPosition = strings.TrimSpace(ex.CurrentPosition)
	cand.CurrentCompany = strings.TrimSpace(ex.CurrentCompany)
	cand.Skills = cleanSkills(ex.Skills)
	cand.WorkHistory = domain.HistoryList(ex.WorkHistory)
	cand.ProjectHistory = domain.HistoryList(ex.ProjectHistory)
	cand.SelfSummary = strings.TrimSpace(ex.SelfSummary)
	cand.RawAIResponse = raw
	cand.VectorID = nil
	cand.Summary = nil

	if err := s.candidates.Save(ctx, cand); err != nil {
		return nil, fmt.Errorf("failed to save candidate: %w", err)
	}
	return cand, nil
}

// UpdateInput carries a manual candidate edit. Nil slices leave the stored
// value untouched.
type UpdateInput struct {
	Name            *string             `json:"name"`
	Phone           *string             `json:"phone"`
	Email           *string             `json:"email"`
	CurrentPosition *string             `json:"currentPosition"`
	CurrentCompany  *string             `json:"currentCompany"`
	WorkYears       *int                `json:"workYears"`
	Education       *string             `json:"education"`
	Skills          []string            `json:"skills"`
	SelfSummary     *string             `json:"selfSummary"`
	WorkHistory     []map[string]string `json:"workHistory"`
}

func (s *CandidateService) Get(ctx context.Context, id int64) (*domain.Candidate, error) {
	return s.candidates.FindByID(ctx, id)
}

func (s *CandidateService) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Candidate, error) {
	cand, err := s.candidates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		cand.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		cand.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		cand.Email = strings.TrimSpace(*in.Email)
	}
	if in.CurrentPosition != nil {
		cand.CurrentPosition = strings.TrimSpace(*in.CurrentPosition)
	}
	if in.CurrentCompany != nil {
		cand.CurrentCompany = strings.TrimSpace(*in.CurrentCompany)
	}
	if in.WorkYears != nil {
		cand.WorkYears = in.WorkYears
	}
	if in.Education != nil {
		cand.HighestEducation = domain.NormalizeEducation(*in.Education)
	}
	if in.Skills != nil {
		cand.Skills = cleanSkills(in.Skills)
	}
	if in.SelfSummary != nil {
		cand.SelfSummary = strings.TrimSpace(*in.SelfSummary)
	}
	if in.WorkHistory != nil {
		cand.WorkHistory = domain.HistoryList(in.WorkHistory)
	}

	if err := s.candidates.Save(ctx, cand); err != nil {
		return nil, fmt.Errorf("failed to save candidate: %w", err)
	}
	return cand, nil
}

// Delete removes the candidate and propagates the deletion to the vector
// index so no orphaned vector outlives the row.
func (s *CandidateService) Delete(ctx context.Context, id int64) error {
	if err := s.candidates.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.index.Delete(ctx, id); err != nil {
		// Reconciliation picks up leftovers; the row delete already stands.
		s.log.Warn("failed to delete candidate vector",
			zap.Int64("candidate_id", id), zap.Error(err))
	}
	return nil
}

func cleanSkills(in []string) domain.StringList {
	out := make(domain.StringList, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
