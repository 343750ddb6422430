package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/vectorstore"
	"ai-sales-brain/models"
)

const (
	maxExcerptLength = 300

	noResultsAnswer = "I couldn't find any relevant information in your uploaded documents to answer this question. Please make sure you have uploaded relevant PDF documents."

	systemPromptTemplate = `You are an AI sales assistant. Answer the user's question using only the context below, which was retrieved from their uploaded sales documents. If the context does not contain the answer, say so plainly instead of guessing.

Context:
%s`
)

// CompletionClient generates an answer grounded on retrieved context.
type CompletionClient interface {
	Complete(ctx context.Context, systemContext, question string) (string, error)
}

// RagService answers questions over a user's indexed documents: retrieve
// scoped chunks, assemble a grounding context, generate, and attach
// evidence with a confidence grade.
type RagService struct {
	index      vectorstore.Index
	completion CompletionClient
	topK       int
	threshold  float64
}

func NewRagService(index vectorstore.Index, completion CompletionClient, topK int, threshold float64) *RagService {
	if topK <= 0 {
		topK = 5
	}
	return &RagService{
		index:      index,
		completion: completion,
		topK:       topK,
		threshold:  threshold,
	}
}

// Query runs retrieval and generation for one question. Retrieval is always
// scoped to the asking user; with no hits above the similarity threshold a
// canned answer is returned and the model is never called.
func (s *RagService) Query(ctx context.Context, userID primitive.ObjectID, req models.ChatQueryRequest) (*models.ChatQueryResponse, error) {
	topK := s.topK
	if req.TopK > 0 {
		topK = req.TopK
	}

	hits, err := s.index.Search(ctx, req.Query, topK, s.threshold, vectorstore.Filter{UserID: userID.Hex()})
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	logger.Info("Retrieved chunks for query", "hits", len(hits), "user_id", userID.Hex())

	if len(hits) == 0 {
		return &models.ChatQueryResponse{
			Query:      req.Query,
			Answer:     noResultsAnswer,
			Evidence:   []models.EvidenceItem{},
			Confidence: confidenceLow,
		}, nil
	}

	answer, err := s.completion.Complete(ctx, fmt.Sprintf(systemPromptTemplate, buildContext(hits)), req.Query)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &models.ChatQueryResponse{
		Query:      req.Query,
		Answer:     answer,
		Evidence:   buildEvidence(hits),
		Confidence: gradeConfidence(len(hits)),
	}, nil
}

// buildContext renders retrieved chunks as numbered, source-attributed
// blocks for the system prompt.
func buildContext(hits []vectorstore.Hit) string {
	var b strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&b, "[Document %d: %s]\n%s\n\n", i+1, metaString(hit.Metadata, vectorstore.MetaFileName), hit.Text)
	}
	return b.String()
}

func buildEvidence(hits []vectorstore.Hit) []models.EvidenceItem {
	evidence := make([]models.EvidenceItem, len(hits))
	for i, hit := range hits {
		excerpt := hit.Text
		if len(excerpt) > maxExcerptLength {
			excerpt = excerpt[:maxExcerptLength-3] + "..."
		}

		relevance := 0.0
		if hit.Distance != nil {
			relevance = math.Round((1-*hit.Distance)*100) / 100
		}

		evidence[i] = models.EvidenceItem{
			Source:         metaString(hit.Metadata, vectorstore.MetaFileName),
			Excerpt:        excerpt,
			Page:           metaInt(hit.Metadata, vectorstore.MetaPageNumber),
			RelevanceScore: relevance,
		}
	}
	return evidence
}

const (
	confidenceHigh   = "High"
	confidenceMedium = "Medium"
	confidenceLow    = "Low"
)

// gradeConfidence maps hit count to a coarse grade. More independent
// supporting chunks means a better grounded answer.
func gradeConfidence(hits int) string {
	switch {
	case hits >= 3:
		return confidenceHigh
	case hits == 2:
		return confidenceMedium
	default:
		return confidenceLow
	}
}

func metaString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return "Unknown"
}

// metaInt tolerates the numeric types JSON decoding produces.
func metaInt(metadata map[string]any, key string) int {
	switch v := metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
