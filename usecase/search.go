package usecase

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

const (
	DefaultSearchTopK     = 10
	DefaultSearchMinScore = 0.3
	MaxSearchTopK         = 50
	MaxQueryLength        = 1000
)

type SearchRequest struct {
	Query string `json:"query" binding:"required,min=1,max=1000"`
	TopK  int    `json:"topK" binding:"omitempty,min=1,max=50"`
	// MinScore is a pointer so an explicit 0 (threshold disabled) stays
	// distinguishable from an absent field, which gets the default.
	MinScore *float64 `json:"minScore" binding:"omitempty,min=0,max=1"`
}

type SearchCandidate struct {
	CandidateID     int64    `json:"candidateId"`
	Name            string   `json:"name"`
	MatchScore      float64  `json:"matchScore"`
	CurrentPosition string   `json:"currentPosition"`
	CurrentCompany  string   `json:"currentCompany"`
	Education       string   `json:"education"`
	WorkYears       *int     `json:"workYears"`
	Skills          []string `json:"skills"`
	Summary         string   `json:"summary"`
}

type SearchResponse struct {
	Query        string            `json:"query"`
	TotalMatches int               `json:"totalMatches"`
	Candidates   []SearchCandidate `json:"candidates"`
}

// SearchService answers free-text queries over the vector index and joins
// hits back to canonical candidate rows.
type SearchService struct {
	candidates domain.CandidateRepository
	embedder   domain.Embedder
	index      domain.VectorIndex
	log        *zap.Logger
}

func NewSearchService(candidates domain.CandidateRepository, embedder domain.Embedder, index domain.VectorIndex, logger *zap.Logger) *SearchService {
	return &SearchService{candidates: candidates, embedder: embedder, index: index, log: logger}
}

// Search embeds the query, filters hits by the similarity threshold and
// batch-loads surviving candidates in one fetch. Hits whose candidate no
// longer exists are dropped silently; index and store drift by at most one
// reconciliation cycle. An empty result is a valid response, not an error.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Query == "" || len(req.Query) > MaxQueryLength {
		return nil, fmt.Errorf("query must be 1-%d characters", MaxQueryLength)
	}
	if req.TopK == 0 {
		req.TopK = DefaultSearchTopK
	}
	if req.TopK < 1 || req.TopK > MaxSearchTopK {
		return nil, fmt.Errorf("topK must be 1-%d", MaxSearchTopK)
	}
	minScore := DefaultSearchMinScore
	if req.MinScore != nil {
		if *req.MinScore < 0 || *req.MinScore > 1 {
			return nil, fmt.Errorf("minScore must be 0-1")
		}
		minScore = *req.MinScore
	}

	vector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vector, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	var (
		ids    []int64
		scores = make(map[int64]float64, len(hits))
		order  []int64
	)
	for _, hit := range hits {
		if hit.Similarity < minScore {
			continue
		}
		ids = append(ids, hit.CandidateID)
		scores[hit.CandidateID] = hit.Similarity
		order = append(order, hit.CandidateID)
	}

	resp := &SearchResponse{Query: req.Query, Candidates: []SearchCandidate{}}
	if len(ids) == 0 {
		return resp, nil
	}

	// One batch fetch for all surviving hits, not a lookup per hit.
	cands, err := s.candidates.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	byID := make(map[int64]*domain.Candidate, len(cands))
	for i := range cands {
		byID[cands[i].ID] = &cands[i]
	}

	for _, id := range order {
		cand, ok := byID[id]
		if !ok {
			s.log.Debug("dropping hit for missing candidate", zap.Int64("candidate_id", id))
			continue
		}
		summary := ""
		if cand.Summary != nil {
			summary = *cand.Summary
		}
		resp.Candidates = append(resp.Candidates, SearchCandidate{
			CandidateID:     cand.ID,
			Name:            cand.Name,
			MatchScore:      round4(scores[id]),
			CurrentPosition: cand.CurrentPosition,
			CurrentCompany:  cand.CurrentCompany,
			Education:       string(cand.HighestEducation),
			WorkYears:       cand.WorkYears,
			Skills:          cand.Skills,
			Summary:         summary,
		})
	}
	resp.TotalMatches = len(resp.Candidates)
	return resp, nil
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
