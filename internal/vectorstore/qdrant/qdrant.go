package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ai-sales-brain/internal/ai"
	"ai-sales-brain/internal/vectorstore"
)

// Store is a minimal REST client to Qdrant implementing vectorstore.Index.
// It assumes cosine distance and creates the collection if missing.
// Embedding generation happens here, behind the Index contract.
type Store struct {
	url        string
	apiKey     string
	collection string
	embedder   ai.Embedder
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewStore(cfg Config, embedder ai.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("qdrant: embedder is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}
	if err := s.ensureCollection(cfg.Dimension); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(dimension int) error {
	if dimension <= 0 {
		return errors.New("qdrant: invalid vector dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK if the collection already exists with the same schema
	return s.putJSON(context.Background(), fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Store) Add(ctx context.Context, entries []vectorstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		vector, err := s.embedder.Embed(ctx, entry.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", entry.ID, err)
		}
		payload := map[string]any{"text": entry.Text}
		for k, v := range entry.Metadata {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      entry.ID,
			"vector":  vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"points": ids}
	return s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection), body, nil)
}

func (s *Store) Search(ctx context.Context, query string, topK int, threshold float64, filter vectorstore.Filter) ([]vectorstore.Hit, error) {
	if filter.UserID == "" {
		return nil, vectorstore.ErrMissingScope
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := map[string]any{
		"vector":          vector,
		"limit":           topK,
		"with_payload":    true,
		"score_threshold": threshold,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": vectorstore.MetaUserID, "match": map[string]any{"value": filter.UserID}},
			},
		},
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := vectorstore.Hit{
			Metadata: map[string]any{},
		}
		hit.ID = fmt.Sprint(r.ID)
		for k, v := range r.Payload {
			if k == "text" {
				if text, ok := v.(string); ok {
					hit.Text = text
				}
				continue
			}
			hit.Metadata[k] = v
		}
		// Cosine score is a similarity; callers expect a distance metric
		distance := 1.0 - r.Score
		hit.Distance = &distance
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
