package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ats-pipeline/domain"
)

func newTestScorer(jobs *fakeJobRepo, cands *fakeCandidateRepo, apps *fakeAppRepo, emb *fakeEmbedder, idx *fakeIndex) *Scorer {
	return NewScorer(jobs, cands, apps, emb, idx, DefaultScoringConfig(), zap.NewNop())
}

func intPtr(v int) *int { return &v }

func TestCompositeWeightingWithBaselines(t *testing.T) {
	// Job with no skill/experience/education requirements; candidate absent
	// from top-K. Semantic falls to the absent baseline (20) and every other
	// factor scores full marks:
	// 0.30*20 + 0.35*100 + 0.20*100 + 0.15*100 = 76.00
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, &fakeIndex{})

	job := &domain.Job{ID: 1, Title: "Engineer", Description: "Build things"}
	cand := &domain.Candidate{ID: 7}

	result := scorer.compute(context.Background(), job, cand)

	assert.Equal(t, 20.0, result.Breakdown.SemanticScore)
	assert.Equal(t, 100.0, result.Breakdown.SkillScore)
	assert.Equal(t, 100.0, result.Breakdown.ExperienceScore)
	assert.Equal(t, 100.0, result.Breakdown.EducationScore)
	assert.Equal(t, 76.0, result.TotalScore)
	assert.Len(t, result.Reasons, 4)
}

func TestSemanticScoreFromHit(t *testing.T) {
	idx := &fakeIndex{hits: []domain.VectorHit{
		{CandidateID: 7, Similarity: 0.82},
		{CandidateID: 9, Similarity: 0.60},
	}}
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, idx)

	score, reason := scorer.semanticScore(context.Background(), &domain.Job{ID: 1}, &domain.Candidate{ID: 7})
	assert.InDelta(t, 82.0, score, 1e-9)
	assert.Contains(t, reason, "0.82")
}

func TestSemanticScoreErrorBaseline(t *testing.T) {
	// The search call failing must degrade to the neutral baseline, not
	// fail the scoring operation.
	idx := &fakeIndex{searchErr: errors.New("index unavailable")}
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, idx)

	score, _ := scorer.semanticScore(context.Background(), &domain.Job{ID: 1}, &domain.Candidate{ID: 7})
	assert.Equal(t, 50.0, score)

	embErr := &fakeEmbedder{err: errors.New("embedding down")}
	scorer = newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), embErr, &fakeIndex{})
	score, _ = scorer.semanticScore(context.Background(), &domain.Job{ID: 1}, &domain.Candidate{ID: 7})
	assert.Equal(t, 50.0, score)
}

func TestSkillScoreOverlap(t *testing.T) {
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, &fakeIndex{})

	job := &domain.Job{RequiredSkills: domain.StringList{"Go", "MySQL", "Kubernetes"}}
	cand := &domain.Candidate{Skills: domain.StringList{" go ", "mysql", "Redis"}}

	score, reason := scorer.skillScore(job, cand)
	assert.InDelta(t, 200.0/3.0, score, 1e-9)
	assert.Contains(t, reason, "go")
	assert.Contains(t, reason, "missing: kubernetes")
}

func TestSkillScoreEdgeCases(t *testing.T) {
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, &fakeIndex{})

	score, _ := scorer.skillScore(&domain.Job{}, &domain.Candidate{Skills: domain.StringList{"go"}})
	assert.Equal(t, 100.0, score, "empty requirement list has nothing to fail")

	score, _ = scorer.skillScore(
		&domain.Job{RequiredSkills: domain.StringList{"go"}},
		&domain.Candidate{},
	)
	assert.Equal(t, 0.0, score, "empty candidate skill set scores zero")
}

func TestExperienceScore(t *testing.T) {
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, &fakeIndex{})

	tests := []struct {
		name string
		min  *int
		max  *int
		have *int
		want float64
	}{
		{"no requirement", nil, nil, intPtr(3), 100},
		{"unknown candidate", intPtr(2), nil, nil, 50},
		{"within range", intPtr(2), intPtr(8), intPtr(5), 100},
		{"missing upper bound is unbounded", intPtr(2), nil, intPtr(30), 100},
		{"two years short", intPtr(5), nil, intPtr(3), 70},
		{"one year over", nil, intPtr(4), intPtr(5), 85},
		{"floored at 10", intPtr(10), nil, intPtr(1), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &domain.Job{MinYears: tt.min, MaxYears: tt.max}
			cand := &domain.Candidate{WorkYears: tt.have}
			score, _ := scorer.experienceScore(job, cand)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestEducationScoreMonotonicity(t *testing.T) {
	scorer := newTestScorer(newFakeJobRepo(), newFakeCandidateRepo(), newFakeAppRepo(), &fakeEmbedder{}, &fakeIndex{})
	job := &domain.Job{RequiredEducation: domain.EducationMaster}

	levels := []domain.EducationLevel{
		domain.EducationDoctorate,
		domain.EducationMaster,
		domain.EducationBachelor,
		domain.EducationAssociate,
		domain.EducationNone,
	}
	prev := 101.0
	for _, lvl := range levels {
		score, _ := scorer.educationScore(job, &domain.Candidate{HighestEducation: lvl})
		assert.LessOrEqual(t, score, prev, "score must be non-increasing as the level drops")
		prev = score
	}

	score, _ := scorer.educationScore(job, &domain.Candidate{HighestEducation: domain.EducationBachelor})
	assert.Equal(t, 75.0, score)
	score, _ = scorer.educationScore(job, &domain.Candidate{HighestEducation: domain.EducationNone})
	assert.Equal(t, 25.0, score)

	score, _ = scorer.educationScore(&domain.Job{}, &domain.Candidate{HighestEducation: domain.EducationNone})
	assert.Equal(t, 100.0, score, "no requirement scores full")
	score, _ = scorer.educationScore(job, &domain.Candidate{})
	assert.Equal(t, 50.0, score, "unknown candidate education scores neutral")
}

func TestComputeForApplicationPersistsAndOverwrites(t *testing.T) {
	jobs := newFakeJobRepo()
	cands := newFakeCandidateRepo()
	apps := newFakeAppRepo()

	require.NoError(t, jobs.Create(context.Background(), &domain.Job{
		ID:             1,
		Title:          "Backend Engineer",
		Description:    "Go services",
		RequiredSkills: domain.StringList{"go"},
	}))
	require.NoError(t, cands.Save(context.Background(), &domain.Candidate{
		ResumeID: 1,
		Name:     "Ada",
		Skills:   domain.StringList{"go"},
	}))
	require.NoError(t, apps.Create(context.Background(), &domain.JobApplication{JobID: 1, CandidateID: 1}))

	scorer := newTestScorer(jobs, cands, apps, &fakeEmbedder{}, &fakeIndex{})

	first, err := scorer.ComputeForApplication(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, apps.savedScore)
	assert.Equal(t, first.TotalScore, *apps.savedScore.TotalScore)
	assert.NotEmpty(t, apps.savedScore.Reasons)

	// Recalculation overwrites, never appends.
	second, err := scorer.ComputeForApplication(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, apps.saves)
	assert.Equal(t, first.TotalScore, second.TotalScore,
		"same inputs through the shared computation must give identical results")
	assert.Len(t, apps.savedScore.Reasons, 4)
}
