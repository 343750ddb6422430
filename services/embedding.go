package services

import (
	"context"
	"fmt"
	"time"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/vectorstore"
	"ai-sales-brain/models"
)

// EmbeddingService pushes chunk batches into the vector index. Storage is
// retried a bounded number of times with increasing backoff because
// transient embedding-service failures are expected; exhausting the
// attempts fails the whole ingestion.
type EmbeddingService struct {
	index      vectorstore.Index
	attempts   int
	retryDelay time.Duration
}

func NewEmbeddingService(index vectorstore.Index, attempts int, retryDelay time.Duration) *EmbeddingService {
	if attempts <= 0 {
		attempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &EmbeddingService{
		index:      index,
		attempts:   attempts,
		retryDelay: retryDelay,
	}
}

// StoreChunks indexes every chunk of one document under the owning user's
// scope. The index acknowledging the batch is what allows the pipeline to
// mark the document COMPLETED.
func (s *EmbeddingService) StoreChunks(ctx context.Context, chunks []models.DocumentChunk, fileName string) error {
	if len(chunks) == 0 {
		return nil
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, chunk := range chunks {
		pageNumber := 0
		if chunk.PageNumber != nil {
			pageNumber = *chunk.PageNumber
		}
		entries[i] = vectorstore.Entry{
			ID:   chunk.ID,
			Text: chunk.Content,
			Metadata: map[string]any{
				vectorstore.MetaUserID:     chunk.UserID.Hex(),
				vectorstore.MetaDocumentID: chunk.DocumentID.Hex(),
				vectorstore.MetaFileName:   fileName,
				vectorstore.MetaChunkIndex: chunk.ChunkIndex,
				vectorstore.MetaPageNumber: pageNumber,
			},
		}
	}

	var lastErr error
	delay := s.retryDelay
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.index.Add(ctx, entries)
		if lastErr == nil {
			logger.Info("Stored chunks in vector index",
				"chunks", len(entries), "user_id", chunks[0].UserID.Hex())
			return nil
		}

		logger.Warn("Vector index storage failed",
			"attempt", attempt, "max_attempts", s.attempts, "error", lastErr)

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("failed to store embeddings after %d attempts: %w", s.attempts, lastErr)
}

// DeleteChunks purges index entries for externally deleted documents.
// Best effort: a failed purge is logged, not raised.
func (s *EmbeddingService) DeleteChunks(ctx context.Context, chunkIDs []string) {
	if len(chunkIDs) == 0 {
		return
	}
	if err := s.index.Delete(ctx, chunkIDs); err != nil {
		logger.Error("Failed to delete chunks from vector index", "chunks", len(chunkIDs), "error", err)
		return
	}
	logger.Info("Deleted chunks from vector index", "chunks", len(chunkIDs))
}
