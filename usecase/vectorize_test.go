package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ats-pipeline/domain"
)

func seedVectorCandidate(t *testing.T, repo *fakeCandidateRepo) *domain.Candidate {
	t.Helper()
	c := &domain.Candidate{
		ResumeID:         1,
		Name:             "Ada Lovelace",
		HighestEducation: domain.EducationMaster,
		CurrentPosition:  "Backend Engineer",
		CurrentCompany:   "Analytical Engines Ltd",
		Skills:           domain.StringList{"go", "mysql"},
		WorkHistory: domain.HistoryList{
			{"company": "Analytical Engines Ltd", "position": "Engineer", "start_date": "2019-03", "end_date": "present"},
		},
		SelfSummary: "Enjoys difficult plumbing.",
	}
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}

func TestVectorizeSuccessWritesBackBothFields(t *testing.T) {
	repo := newFakeCandidateRepo()
	idx := &fakeIndex{}
	v := NewVectorizer(repo, &fakeEmbedder{}, idx, 8000, zap.NewNop())
	cand := seedVectorCandidate(t, repo)

	v.Vectorize(context.Background(), cand)

	require.Len(t, idx.upserts, 1)
	assert.Equal(t, cand.ID, idx.upserts[0].CandidateID)
	assert.Equal(t, "Ada Lovelace", idx.upserts[0].Name)

	stored, err := repo.FindByID(context.Background(), cand.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VectorID, "reference and summary are set together")
	require.NotNil(t, stored.Summary)
	assert.Contains(t, *stored.Summary, "Ada Lovelace")
}

func TestVectorizeEmbeddingFailureIsIsolated(t *testing.T) {
	repo := newFakeCandidateRepo()
	idx := &fakeIndex{}
	v := NewVectorizer(repo, &fakeEmbedder{err: errors.New("down")}, idx, 8000, zap.NewNop())
	cand := seedVectorCandidate(t, repo)

	// Must not panic and must not partially write.
	v.Vectorize(context.Background(), cand)

	assert.Empty(t, idx.upserts)
	stored, _ := repo.FindByID(context.Background(), cand.ID)
	assert.Nil(t, stored.VectorID)
	assert.Nil(t, stored.Summary)
}

func TestVectorizeIndexFailureIsIsolated(t *testing.T) {
	repo := newFakeCandidateRepo()
	idx := &fakeIndex{upsertErr: errors.New("index unavailable")}
	v := NewVectorizer(repo, &fakeEmbedder{}, idx, 8000, zap.NewNop())
	cand := seedVectorCandidate(t, repo)

	v.Vectorize(context.Background(), cand)

	stored, _ := repo.FindByID(context.Background(), cand.ID)
	assert.Nil(t, stored.VectorID, "no write-back after a failed upsert")
}

func TestBuildSummaryDeterministicOrder(t *testing.T) {
	repo := newFakeCandidateRepo()
	v := NewVectorizer(repo, &fakeEmbedder{}, &fakeIndex{}, 8000, zap.NewNop())
	cand := seedVectorCandidate(t, repo)

	first := v.buildSummary(cand)
	second := v.buildSummary(cand)
	assert.Equal(t, first, second)

	// Fixed section order: identity before education before skills.
	name := strings.Index(first, "Name:")
	edu := strings.Index(first, "Education:")
	skills := strings.Index(first, "Skills:")
	summary := strings.Index(first, "Summary:")
	assert.True(t, name < edu && edu < skills && skills < summary,
		"summary sections out of order: %q", first)

	// Empty fields are skipped entirely.
	assert.NotContains(t, first, "School:")
	assert.NotContains(t, first, "Years of experience:")
}

func TestBuildSummaryTruncation(t *testing.T) {
	repo := newFakeCandidateRepo()
	v := NewVectorizer(repo, &fakeEmbedder{}, &fakeIndex{}, 120, zap.NewNop())
	cand := seedVectorCandidate(t, repo)
	cand.SelfSummary = strings.Repeat("long story ", 100)

	out := v.buildSummary(cand)
	assert.Len(t, out, 120)
}

func TestBuildSummaryTruncationKeepsValidUTF8(t *testing.T) {
	v := NewVectorizer(newFakeCandidateRepo(), &fakeEmbedder{}, &fakeIndex{}, 50, zap.NewNop())
	cand := &domain.Candidate{
		ID:          1,
		Name:        "王小明",
		SelfSummary: strings.Repeat("十年后端开发经验", 50),
	}

	out := v.buildSummary(cand)
	assert.True(t, utf8.ValidString(out), "truncation must not split a multi-byte character")
	assert.Equal(t, 50, utf8.RuneCountInString(out))
}
