package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/vectorstore"
	"ai-sales-brain/models"
)

type flakyIndex struct {
	failures int
	attempts int
	entries  []vectorstore.Entry
}

func (f *flakyIndex) Add(ctx context.Context, entries []vectorstore.Entry) error {
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("transient embedding failure")
	}
	f.entries = entries
	return nil
}

func (f *flakyIndex) Delete(ctx context.Context, ids []string) error { return nil }

func (f *flakyIndex) Search(ctx context.Context, query string, topK int, threshold float64, filter vectorstore.Filter) ([]vectorstore.Hit, error) {
	return nil, nil
}

func testChunk(index int, page *int) models.DocumentChunk {
	return models.DocumentChunk{
		ID:         primitive.NewObjectID().Hex(),
		DocumentID: primitive.NewObjectID(),
		UserID:     primitive.NewObjectID(),
		ChunkIndex: index,
		Content:    "chunk content",
		PageNumber: page,
	}
}

func TestStoreChunksBuildsMetadata(t *testing.T) {
	index := &flakyIndex{}
	svc := NewEmbeddingService(index, 3, time.Millisecond)

	page := 4
	chunk := testChunk(2, &page)
	if err := svc.StoreChunks(context.Background(), []models.DocumentChunk{chunk}, "deal.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(index.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(index.entries))
	}
	entry := index.entries[0]
	if entry.ID != chunk.ID || entry.Text != chunk.Content {
		t.Errorf("entry identity mismatch: %+v", entry)
	}

	meta := entry.Metadata
	if meta[vectorstore.MetaUserID] != chunk.UserID.Hex() {
		t.Errorf("userId metadata = %v", meta[vectorstore.MetaUserID])
	}
	if meta[vectorstore.MetaDocumentID] != chunk.DocumentID.Hex() {
		t.Errorf("documentId metadata = %v", meta[vectorstore.MetaDocumentID])
	}
	if meta[vectorstore.MetaFileName] != "deal.pdf" {
		t.Errorf("fileName metadata = %v", meta[vectorstore.MetaFileName])
	}
	if meta[vectorstore.MetaChunkIndex] != 2 {
		t.Errorf("chunkIndex metadata = %v", meta[vectorstore.MetaChunkIndex])
	}
	if meta[vectorstore.MetaPageNumber] != 4 {
		t.Errorf("pageNumber metadata = %v", meta[vectorstore.MetaPageNumber])
	}
}

func TestStoreChunksDefaultsPageNumber(t *testing.T) {
	index := &flakyIndex{}
	svc := NewEmbeddingService(index, 3, time.Millisecond)

	if err := svc.StoreChunks(context.Background(), []models.DocumentChunk{testChunk(0, nil)}, "a.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := index.entries[0].Metadata[vectorstore.MetaPageNumber]; got != 0 {
		t.Errorf("pageNumber default = %v, want 0", got)
	}
}

func TestStoreChunksRetriesTransientFailures(t *testing.T) {
	index := &flakyIndex{failures: 2}
	svc := NewEmbeddingService(index, 3, time.Millisecond)

	if err := svc.StoreChunks(context.Background(), []models.DocumentChunk{testChunk(0, nil)}, "a.txt"); err != nil {
		t.Fatalf("expected success on third attempt, got: %v", err)
	}
	if index.attempts != 3 {
		t.Errorf("attempts = %d, want 3", index.attempts)
	}
}

func TestStoreChunksGivesUpAfterMaxAttempts(t *testing.T) {
	index := &flakyIndex{failures: 10}
	svc := NewEmbeddingService(index, 3, time.Millisecond)

	err := svc.StoreChunks(context.Background(), []models.DocumentChunk{testChunk(0, nil)}, "a.txt")
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if index.attempts != 3 {
		t.Errorf("attempts = %d, want 3", index.attempts)
	}
}

func TestStoreChunksEmptyBatch(t *testing.T) {
	index := &flakyIndex{}
	svc := NewEmbeddingService(index, 3, time.Millisecond)

	if err := svc.StoreChunks(context.Background(), nil, "a.txt"); err != nil {
		t.Fatalf("empty batch must be a no-op, got: %v", err)
	}
	if index.attempts != 0 {
		t.Error("empty batch must not touch the index")
	}
}
