package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// Vectorizer builds a candidate's text summary, embeds it and upserts the
// vector into the index. It sits on background paths only: every failure is
// absorbed and logged here, never surfaced to the caller's primary
// operation. An un-vectorized candidate is simply absent from semantic
// results until the next attempt.
type Vectorizer struct {
	candidates domain.CandidateRepository
	embedder   domain.Embedder
	index      domain.VectorIndex
	maxChars   int
	log        *zap.Logger
}

func NewVectorizer(
	candidates domain.CandidateRepository,
	embedder domain.Embedder,
	index domain.VectorIndex,
	maxChars int,
	logger *zap.Logger,
) *Vectorizer {
	return &Vectorizer{
		candidates: candidates,
		embedder:   embedder,
		index:      index,
		maxChars:   maxChars,
		log:        logger,
	}
}

// Vectorize never returns an error; the component boundary is the fault
// isolation line.
func (v *Vectorizer) Vectorize(ctx context.Context, cand *domain.Candidate) {
	if err := v.vectorize(ctx, cand); err != nil {
		v.log.Error("vectorization failed, candidate stays out of semantic results",
			zap.Int64("candidate_id", cand.ID), zap.Error(err))
	}
}

func (v *Vectorizer) vectorize(ctx context.Context, cand *domain.Candidate) error {
	summary := v.buildSummary(cand)

	vector, err := v.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	// Upsert, not insert: re-vectorization replaces the existing point.
	err = v.index.Upsert(ctx, domain.CandidateVector{
		CandidateID: cand.ID,
		Name:        cand.Name,
		Vector:      vector,
	})
	if err != nil {
		return fmt.Errorf("vector upsert failed: %w", err)
	}

	vectorID := strconv.FormatInt(cand.ID, 10)
	if err := v.candidates.SetVector(ctx, cand.ID, vectorID, summary); err != nil {
		return fmt.Errorf("failed to write back vector reference: %w", err)
	}

	v.log.Info("candidate vectorized",
		zap.Int64("candidate_id", cand.ID),
		zap.Int("summary_chars", len(summary)))
	return nil
}

// buildSummary concatenates present fields in a fixed order so the same
// candidate always yields the same text: identity, education, employment,
// skills, history, self-summary.
func (v *Vectorizer) buildSummary(cand *domain.Candidate) string {
	var b strings.Builder

	writeField := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	writeField("Name", cand.Name)
	if cand.WorkYears != nil {
		writeField("Years of experience", strconv.Itoa(*cand.WorkYears))
	}
	if cand.HighestEducation != domain.EducationUnknown {
		writeField("Education", string(cand.HighestEducation))
	}
	writeField("School", cand.School)
	writeField("Major", cand.Major)
	writeField("Current position", cand.CurrentPosition)
	writeField("Current company", cand.CurrentCompany)
	if len(cand.Skills) > 0 {
		writeField("Skills", strings.Join(cand.Skills, ", "))
	}
	writeHistory(&b, "Work history", cand.WorkHistory)
	writeHistory(&b, "Projects", cand.ProjectHistory)
	writeField("Summary", cand.SelfSummary)

	out := strings.TrimSpace(b.String())
	// Truncate on rune boundaries; a byte cut can split a multi-byte
	// character and hand the embedder invalid UTF-8.
	if runes := []rune(out); len(runes) > v.maxChars {
		v.log.Warn("candidate summary truncated",
			zap.Int64("candidate_id", cand.ID),
			zap.Int("length", len(runes)),
			zap.Int("budget", v.maxChars))
		out = string(runes[:v.maxChars])
	}
	return out
}

// historyKeys is the field order for one history entry. Unknown keys are
// appended after the known ones so no extracted data is silently dropped.
var historyKeys = []string{"company", "name", "position", "role", "start_date", "end_date", "description"}

func writeHistory(b *strings.Builder, label string, entries domain.HistoryList) {
	if len(entries) == 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(":\n")
	for _, entry := range entries {
		var parts []string
		used := make(map[string]bool, len(entry))
		for _, k := range historyKeys {
			if v, ok := entry[k]; ok && strings.TrimSpace(v) != "" {
				parts = append(parts, strings.TrimSpace(v))
				used[k] = true
			}
		}
		var rest []string
		for k, v := range entry {
			if !used[k] && strings.TrimSpace(v) != "" {
				rest = append(rest, k+"="+strings.TrimSpace(v))
			}
		}
		sort.Strings(rest)
		parts = append(parts, rest...)
		if len(parts) > 0 {
			b.WriteString("- ")
			b.WriteString(strings.Join(parts, ", "))
			b.WriteString("\n")
		}
	}
}
