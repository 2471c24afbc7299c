package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ats-pipeline/domain"
)

// VectorIndexClient talks to the external similarity index over its REST
// contract (Qdrant-compatible points API). The index's internals are not
// owned here; only upsert, search and delete are consumed.
type VectorIndexClient struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func NewVectorIndexClient(baseURL, collection string) *VectorIndexClient {
	return &VectorIndexClient{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upsert replaces any existing point for the candidate; re-vectorization
// must never duplicate.
func (c *VectorIndexClient) Upsert(ctx context.Context, v domain.CandidateVector) error {
	body := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":     v.CandidateID,
				"vector": v.Vector,
				"payload": map[string]interface{}{
					"candidate_id": v.CandidateID,
					"name":         v.Name,
				},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, body, nil)
}

func (c *VectorIndexClient) Search(ctx context.Context, vector []float32, topK int) ([]domain.VectorHit, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)

	var result struct {
		Result []struct {
			ID      int64   `json:"id"`
			Score   float64 `json:"score"`
			Payload struct {
				CandidateID int64  `json:"candidate_id"`
				Name        string `json:"name"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, url, body, &result); err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, 0, len(result.Result))
	for _, r := range result.Result {
		id := r.Payload.CandidateID
		if id == 0 {
			id = r.ID
		}
		hits = append(hits, domain.VectorHit{
			CandidateID: id,
			Name:        r.Payload.Name,
			Similarity:  r.Score,
		})
	}
	return hits, nil
}

func (c *VectorIndexClient) Delete(ctx context.Context, candidateID int64) error {
	body := map[string]interface{}{
		"points": []int64{candidateID},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPost, url, body, nil)
}

func (c *VectorIndexClient) do(ctx context.Context, method, url string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector index error: %d - %s", resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}
