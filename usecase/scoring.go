package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// ScoringConfig holds the composite weights and the semantic fallback
// baselines. The baselines are tuning constants, not derived values.
type ScoringConfig struct {
	SemanticWeight   float64
	SkillWeight      float64
	ExperienceWeight float64
	EducationWeight  float64

	// AbsentBaseline applies when the candidate is missing from the top-K
	// hits; ErrorBaseline when the search itself fails.
	AbsentBaseline float64
	ErrorBaseline  float64

	TopK int
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SemanticWeight:   0.30,
		SkillWeight:      0.35,
		ExperienceWeight: 0.20,
		EducationWeight:  0.15,
		AbsentBaseline:   20,
		ErrorBaseline:    50,
		TopK:             20,
	}
}

// Scorer computes the weighted multi-factor match score for a job-candidate
// pair. The same computation backs both the synchronous recompute endpoint
// and the fire-and-forget trigger after application creation, so the two
// paths cannot diverge.
type Scorer struct {
	jobs       domain.JobRepository
	candidates domain.CandidateRepository
	apps       domain.ApplicationRepository
	embedder   domain.Embedder
	index      domain.VectorIndex
	cfg        ScoringConfig
	log        *zap.Logger
}

func NewScorer(
	jobs domain.JobRepository,
	candidates domain.CandidateRepository,
	apps domain.ApplicationRepository,
	embedder domain.Embedder,
	index domain.VectorIndex,
	cfg ScoringConfig,
	logger *zap.Logger,
) *Scorer {
	return &Scorer{
		jobs:       jobs,
		candidates: candidates,
		apps:       apps,
		embedder:   embedder,
		index:      index,
		cfg:        cfg,
		log:        logger,
	}
}

// ComputeForApplication recalculates and persists the score for one
// application. Recalculation overwrites the previous result.
func (s *Scorer) ComputeForApplication(ctx context.Context, applicationID int64) (*domain.MatchResult, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	cand, err := s.candidates.FindByID(ctx, app.CandidateID)
	if err != nil {
		return nil, err
	}

	result := s.compute(ctx, job, cand)
	result.ApplicationID = app.ID
	result.JobID = job.ID
	result.CandidateID = cand.ID

	now := result.CalculatedAt
	app.TotalScore = &result.TotalScore
	app.SemanticScore = &result.Breakdown.SemanticScore
	app.SkillScore = &result.Breakdown.SkillScore
	app.ExperienceScore = &result.Breakdown.ExperienceScore
	app.EducationScore = &result.Breakdown.EducationScore
	app.Reasons = domain.StringList(result.Reasons)
	app.CalculatedAt = &now

	if err := s.apps.SaveScore(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to persist match score: %w", err)
	}
	return result, nil
}

func (s *Scorer) compute(ctx context.Context, job *domain.Job, cand *domain.Candidate) *domain.MatchResult {
	var reasons []string

	semantic, r := s.semanticScore(ctx, job, cand)
	reasons = append(reasons, r)

	skill, r := s.skillScore(job, cand)
	reasons = append(reasons, r)

	experience, r := s.experienceScore(job, cand)
	reasons = append(reasons, r)

	education, r := s.educationScore(job, cand)
	reasons = append(reasons, r)

	total := round2(s.cfg.SemanticWeight*semantic +
		s.cfg.SkillWeight*skill +
		s.cfg.ExperienceWeight*experience +
		s.cfg.EducationWeight*education)

	return &domain.MatchResult{
		TotalScore: total,
		Breakdown: domain.ScoreBreakdown{
			SemanticScore:   semantic,
			SkillScore:      skill,
			ExperienceScore: experience,
			EducationScore:  education,
		},
		Reasons:      reasons,
		CalculatedAt: time.Now(),
	}
}

// semanticScore embeds the job's text profile, searches the index and
// locates the candidate in the hit list. It degrades to baselines instead
// of failing: scoring must produce a complete result even when the
// embedding service is down.
func (s *Scorer) semanticScore(ctx context.Context, job *domain.Job, cand *domain.Candidate) (float64, string) {
	profile := jobProfile(job)

	vector, err := s.embedder.Embed(ctx, profile)
	if err != nil {
		s.log.Warn("job embedding failed, using semantic baseline",
			zap.Int64("job_id", job.ID), zap.Error(err))
		return s.cfg.ErrorBaseline, fmt.Sprintf("semantic match unavailable, baseline %.0f applied", s.cfg.ErrorBaseline)
	}

	hits, err := s.index.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		s.log.Warn("semantic search failed, using semantic baseline",
			zap.Int64("job_id", job.ID), zap.Error(err))
		return s.cfg.ErrorBaseline, fmt.Sprintf("semantic match unavailable, baseline %.0f applied", s.cfg.ErrorBaseline)
	}

	for _, hit := range hits {
		if hit.CandidateID == cand.ID {
			score := clamp(hit.Similarity*100, 0, 100)
			return score, fmt.Sprintf("semantic similarity %.2f against job profile", hit.Similarity)
		}
	}
	return s.cfg.AbsentBaseline, fmt.Sprintf("not among top %d semantic matches, baseline %.0f applied", s.cfg.TopK, s.cfg.AbsentBaseline)
}

// skillScore is the normalized overlap between required and possessed
// skills. Nothing required means nothing to fail.
func (s *Scorer) skillScore(job *domain.Job, cand *domain.Candidate) (float64, string) {
	required := normalizeSkillSet(job.RequiredSkills)
	if len(required) == 0 {
		return 100, "no skill requirements"
	}

	possessed := normalizeSkillSet(cand.Skills)
	if len(possessed) == 0 {
		return 0, fmt.Sprintf("candidate lists no skills, %d required", len(required))
	}

	var matched, missing []string
	for _, req := range sortedKeys(required) {
		if possessed[req] {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}

	score := float64(len(matched)) / float64(len(required)) * 100
	reason := fmt.Sprintf("skills matched: %s", joinOrNone(matched))
	if len(missing) > 0 {
		reason += fmt.Sprintf("; missing: %s", strings.Join(missing, ", "))
	}
	return score, reason
}

// experienceScore gives full marks inside [min, max] and a linear penalty
// of 15 points per year of gap outside it, floored at 10.
func (s *Scorer) experienceScore(job *domain.Job, cand *domain.Candidate) (float64, string) {
	if job.MinYears == nil && job.MaxYears == nil {
		return 100, "no experience requirement"
	}
	if cand.WorkYears == nil {
		return 50, "candidate experience unknown"
	}

	years := *cand.WorkYears
	gap := 0
	if job.MinYears != nil && years < *job.MinYears {
		gap = *job.MinYears - years
	} else if job.MaxYears != nil && years > *job.MaxYears {
		gap = years - *job.MaxYears
	}

	if gap == 0 {
		return 100, fmt.Sprintf("%d years of experience within required range", years)
	}
	score := math.Max(100-float64(gap)*15, 10)
	return score, fmt.Sprintf("%d years of experience, %d year(s) outside required range", years, gap)
}

// educationScore compares ordinal education levels with a 25-point penalty
// per level of shortfall, floored at 0.
func (s *Scorer) educationScore(job *domain.Job, cand *domain.Candidate) (float64, string) {
	reqRank := job.RequiredEducation.Rank()
	if reqRank < 0 {
		return 100, "no education requirement"
	}
	candRank := cand.HighestEducation.Rank()
	if candRank < 0 {
		return 50, "candidate education unknown"
	}

	if candRank >= reqRank {
		return 100, fmt.Sprintf("education %s meets required %s",
			cand.HighestEducation, job.RequiredEducation)
	}
	gap := reqRank - candRank
	score := math.Max(100-float64(gap)*25, 0)
	return score, fmt.Sprintf("education %s is %d level(s) below required %s",
		cand.HighestEducation, gap, job.RequiredEducation)
}

func jobProfile(job *domain.Job) string {
	var b strings.Builder
	b.WriteString(job.Title)
	b.WriteString("\n")
	b.WriteString(job.Description)
	if len(job.RequiredSkills) > 0 {
		b.WriteString("\nRequired skills: ")
		b.WriteString(strings.Join(job.RequiredSkills, ", "))
	}
	return b.String()
}

func normalizeSkillSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out[s] = true
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
