package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/vectorstore"
	"ai-sales-brain/models"
)

type fakeIndex struct {
	hits       []vectorstore.Hit
	err        error
	lastFilter vectorstore.Filter
	lastTopK   int
	added      [][]vectorstore.Entry
	deleted    [][]string
}

func (f *fakeIndex) Add(ctx context.Context, entries []vectorstore.Entry) error {
	f.added = append(f.added, entries)
	return f.err
}

func (f *fakeIndex) Delete(ctx context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return f.err
}

func (f *fakeIndex) Search(ctx context.Context, query string, topK int, threshold float64, filter vectorstore.Filter) ([]vectorstore.Hit, error) {
	f.lastFilter = filter
	f.lastTopK = topK
	if filter.UserID == "" {
		return nil, vectorstore.ErrMissingScope
	}
	return f.hits, f.err
}

type fakeCompletion struct {
	answer      string
	err         error
	calls       int
	lastContext string
	lastQuery   string
}

func (f *fakeCompletion) Complete(ctx context.Context, systemContext, question string) (string, error) {
	f.calls++
	f.lastContext = systemContext
	f.lastQuery = question
	return f.answer, f.err
}

func makeHit(fileName, text string, page int, distance float64) vectorstore.Hit {
	d := distance
	return vectorstore.Hit{
		ID:   primitive.NewObjectID().Hex(),
		Text: text,
		Metadata: map[string]any{
			vectorstore.MetaFileName:   fileName,
			vectorstore.MetaPageNumber: float64(page),
		},
		Distance: &d,
	}
}

func TestQueryNoHitsSkipsGeneration(t *testing.T) {
	index := &fakeIndex{}
	llm := &fakeCompletion{answer: "should never appear"}
	svc := NewRagService(index, llm, 5, 0.75)

	resp, err := svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "anything?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 0 {
		t.Error("completion must not be called with zero hits")
	}
	if resp.Answer != noResultsAnswer {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if resp.Confidence != confidenceLow {
		t.Errorf("expected Low confidence, got %q", resp.Confidence)
	}
	if len(resp.Evidence) != 0 {
		t.Errorf("expected empty evidence, got %d items", len(resp.Evidence))
	}
}

func TestQueryScopesToUser(t *testing.T) {
	index := &fakeIndex{}
	svc := NewRagService(index, &fakeCompletion{}, 5, 0.75)

	userID := primitive.NewObjectID()
	if _, err := svc.Query(context.Background(), userID, models.ChatQueryRequest{Query: "q"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.lastFilter.UserID != userID.Hex() {
		t.Errorf("search filter user = %q, want %q", index.lastFilter.UserID, userID.Hex())
	}
}

func TestQueryBuildsEvidenceAndContext(t *testing.T) {
	longText := strings.Repeat("x", 400)
	index := &fakeIndex{hits: []vectorstore.Hit{
		makeHit("deal.pdf", "The contract value is $50k.", 2, 0.1),
		makeHit("notes.pdf", longText, 0, 0.25),
		{ID: "no-meta", Text: "orphan text", Metadata: map[string]any{}},
	}}
	llm := &fakeCompletion{answer: "The deal is worth $50k."}
	svc := NewRagService(index, llm, 5, 0.75)

	resp, err := svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "deal value?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Answer != "The deal is worth $50k." {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if resp.Confidence != confidenceHigh {
		t.Errorf("3 hits should grade High, got %q", resp.Confidence)
	}
	if llm.lastQuery != "deal value?" {
		t.Errorf("question not forwarded: %q", llm.lastQuery)
	}
	if !strings.Contains(llm.lastContext, "[Document 1: deal.pdf]\nThe contract value is $50k.\n\n") {
		t.Errorf("context missing first block:\n%s", llm.lastContext)
	}
	if !strings.Contains(llm.lastContext, "[Document 3: Unknown]\norphan text\n\n") {
		t.Errorf("missing metadata should render as Unknown:\n%s", llm.lastContext)
	}

	if len(resp.Evidence) != 3 {
		t.Fatalf("expected 3 evidence items, got %d", len(resp.Evidence))
	}

	first := resp.Evidence[0]
	if first.Source != "deal.pdf" || first.Page != 2 {
		t.Errorf("unexpected first evidence: %+v", first)
	}
	if first.RelevanceScore != 0.9 {
		t.Errorf("relevance for distance 0.1 = %v, want 0.9", first.RelevanceScore)
	}

	second := resp.Evidence[1]
	if len(second.Excerpt) != maxExcerptLength {
		t.Errorf("excerpt length %d, want %d", len(second.Excerpt), maxExcerptLength)
	}
	if !strings.HasSuffix(second.Excerpt, "...") {
		t.Errorf("truncated excerpt must end with ellipsis: %q", second.Excerpt[len(second.Excerpt)-10:])
	}

	third := resp.Evidence[2]
	if third.Source != "Unknown" || third.Page != 0 || third.RelevanceScore != 0 {
		t.Errorf("missing metadata defaults wrong: %+v", third)
	}
}

func TestQueryConfidenceGrades(t *testing.T) {
	cases := []struct {
		hits int
		want string
	}{
		{1, confidenceLow},
		{2, confidenceMedium},
		{3, confidenceHigh},
		{7, confidenceHigh},
	}
	for _, tc := range cases {
		hits := make([]vectorstore.Hit, tc.hits)
		for i := range hits {
			hits[i] = makeHit("a.pdf", "text", 1, 0.2)
		}
		index := &fakeIndex{hits: hits}
		svc := NewRagService(index, &fakeCompletion{answer: "ok"}, 10, 0.75)

		resp, err := svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "q"})
		if err != nil {
			t.Fatalf("hits=%d: unexpected error: %v", tc.hits, err)
		}
		if resp.Confidence != tc.want {
			t.Errorf("hits=%d: confidence %q, want %q", tc.hits, resp.Confidence, tc.want)
		}
	}
}

func TestQueryHonorsRequestTopK(t *testing.T) {
	index := &fakeIndex{}
	svc := NewRagService(index, &fakeCompletion{}, 5, 0.75)

	svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "q", TopK: 2})
	if index.lastTopK != 2 {
		t.Errorf("topK = %d, want 2", index.lastTopK)
	}

	svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "q"})
	if index.lastTopK != 5 {
		t.Errorf("default topK = %d, want 5", index.lastTopK)
	}
}

func TestQueryPropagatesFailures(t *testing.T) {
	searchErr := errors.New("index down")
	svc := NewRagService(&fakeIndex{err: searchErr}, &fakeCompletion{}, 5, 0.75)
	if _, err := svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "q"}); !errors.Is(err, searchErr) {
		t.Errorf("search error not propagated: %v", err)
	}

	genErr := errors.New("model unavailable")
	index := &fakeIndex{hits: []vectorstore.Hit{makeHit("a.pdf", "text", 1, 0.2)}}
	svc = NewRagService(index, &fakeCompletion{err: genErr}, 5, 0.75)
	if _, err := svc.Query(context.Background(), primitive.NewObjectID(), models.ChatQueryRequest{Query: "q"}); !errors.Is(err, genErr) {
		t.Errorf("generation error not propagated: %v", err)
	}
}
