package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/models"
)

// DocumentWriter is the persistence surface the processing pipeline needs.
type DocumentWriter interface {
	Insert(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProcessingStatus, errorMessage string) error
	SetTotalPages(ctx context.Context, id primitive.ObjectID, pages *int) error
	SetTotalChunks(ctx context.Context, id primitive.ObjectID, totalChunks int) error
}

// ChunkWriter persists the segmented chunks for one document.
type ChunkWriter interface {
	InsertBatch(ctx context.Context, chunks []models.DocumentChunk) error
}

// ChunkIndexer is the vector-index half of the pipeline.
type ChunkIndexer interface {
	StoreChunks(ctx context.Context, chunks []models.DocumentChunk, fileName string) error
}

// DocumentProcessingService owns the ingestion pipeline for one uploaded
// document: extract text, segment it, persist the chunks, embed and index
// them, and drive the document status machine.
type DocumentProcessingService struct {
	documents  DocumentWriter
	chunks     ChunkWriter
	extraction *ExtractionService
	chunking   *ChunkingService
	embedding  ChunkIndexer
}

func NewDocumentProcessingService(
	documents DocumentWriter,
	chunks ChunkWriter,
	extraction *ExtractionService,
	chunking *ChunkingService,
	embedding ChunkIndexer,
) *DocumentProcessingService {
	return &DocumentProcessingService{
		documents:  documents,
		chunks:     chunks,
		extraction: extraction,
		chunking:   chunking,
		embedding:  embedding,
	}
}

// CreateDocument registers an uploaded file in PENDING state. FileName is
// taken from the saved path so the record always names the file actually
// on disk.
func (s *DocumentProcessingService) CreateDocument(ctx context.Context, userID primitive.ObjectID, dealID *primitive.ObjectID, originalFileName, contentType string, fileSize int64, filePath string) (*models.Document, error) {
	doc := &models.Document{
		FileName:         filepath.Base(filePath),
		OriginalFileName: originalFileName,
		ContentType:      contentType,
		FileSize:         fileSize,
		FilePath:         filePath,
		DocumentType:     InferDocumentType(originalFileName),
		ProcessingStatus: models.StatusPending,
		UserID:           userID,
		DealID:           dealID,
	}
	if err := s.documents.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	logger.Info("Document registered",
		"document_id", doc.ID.Hex(), "file_name", originalFileName, "user_id", userID.Hex())
	return doc, nil
}

// Process runs the full pipeline for a previously registered document and
// returns the number of chunks indexed. PROCESSING is persisted before any
// extraction work begins, COMPLETED only after the vector index has
// acknowledged the chunks. Any failure marks the document FAILED with the
// error message; already persisted chunks are left in place.
func (s *DocumentProcessingService) Process(ctx context.Context, documentID primitive.ObjectID, data []byte) (int, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("document not found: %w", err)
	}

	if err := s.documents.SetStatus(ctx, documentID, models.StatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("failed to mark document processing: %w", err)
	}
	start := time.Now()
	logger.Info("Processing document", "document_id", documentID.Hex(), "file_name", doc.OriginalFileName)

	chunkCount, err := s.process(ctx, doc, data)
	if err != nil {
		logger.Error("Document processing failed",
			"document_id", documentID.Hex(), "error", err)
		if statusErr := s.documents.SetStatus(ctx, documentID, models.StatusFailed, err.Error()); statusErr != nil {
			logger.Error("Failed to mark document failed", "document_id", documentID.Hex(), "error", statusErr)
		}
		return 0, err
	}

	if err := s.documents.SetStatus(ctx, documentID, models.StatusCompleted, ""); err != nil {
		return chunkCount, fmt.Errorf("failed to mark document completed: %w", err)
	}
	logger.Info("Document processing completed",
		"document_id", documentID.Hex(), "chunks", chunkCount, "duration", time.Since(start).String())
	return chunkCount, nil
}

func (s *DocumentProcessingService) process(ctx context.Context, doc *models.Document, data []byte) (int, error) {
	text, pages, err := s.extraction.Extract(data, doc.OriginalFileName, doc.ContentType)
	if err != nil {
		return 0, err
	}
	if pages != nil {
		if err := s.documents.SetTotalPages(ctx, doc.ID, pages); err != nil {
			return 0, fmt.Errorf("failed to record page count: %w", err)
		}
	}

	infos := s.chunking.Segment(text, doc.OriginalFileName)
	if len(infos) == 0 {
		logger.Warn("Document produced no chunks", "document_id", doc.ID.Hex())
		return 0, s.documents.SetTotalChunks(ctx, doc.ID, 0)
	}

	chunks := make([]models.DocumentChunk, len(infos))
	now := time.Now().UTC()
	for i, info := range infos {
		chunks[i] = models.DocumentChunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			UserID:      doc.UserID,
			ChunkIndex:  info.ChunkIndex,
			Content:     info.Content,
			StartOffset: info.StartOffset,
			EndOffset:   info.EndOffset,
			TokenCount:  info.TokenCount,
			CreatedAt:   now,
		}
	}

	if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to save chunks: %w", err)
	}
	if err := s.documents.SetTotalChunks(ctx, doc.ID, len(chunks)); err != nil {
		return 0, fmt.Errorf("failed to record chunk count: %w", err)
	}

	if err := s.embedding.StoreChunks(ctx, chunks, doc.OriginalFileName); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// StoredFileName builds the on-disk name for an upload: a fresh UUID plus
// the original extension.
func StoredFileName(originalFileName string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(originalFileName))
}

// InferDocumentType classifies an upload by filename keywords. Earlier
// keywords win when several match.
func InferDocumentType(fileName string) models.DocumentType {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "meeting") || strings.Contains(name, "minutes"):
		return models.TypeMeetingMinutes
	case strings.Contains(name, "proposal"):
		return models.TypeProposal
	case strings.Contains(name, "quote") || strings.Contains(name, "quotation"):
		return models.TypeQuotation
	case strings.Contains(name, "email") || strings.Contains(name, "mail"):
		return models.TypeEmailLog
	case strings.Contains(name, "contract"):
		return models.TypeContract
	case strings.Contains(name, "spec") || strings.Contains(name, "technical"):
		return models.TypeTechnicalSpec
	default:
		return models.TypeOther
	}
}
