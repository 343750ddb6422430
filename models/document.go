package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document represents one uploaded sales document and its processing state.
type Document struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FileName         string              `bson:"file_name" json:"file_name"`
	OriginalFileName string              `bson:"original_file_name" json:"original_file_name"`
	ContentType      string              `bson:"content_type" json:"content_type"`
	FileSize         int64               `bson:"file_size" json:"file_size"`
	FilePath         string              `bson:"file_path" json:"-"`
	DocumentType     DocumentType        `bson:"document_type" json:"document_type"`
	TotalPages       *int                `bson:"total_pages,omitempty" json:"total_pages,omitempty"`
	TotalChunks      int                 `bson:"total_chunks" json:"total_chunks"`
	ProcessingStatus ProcessingStatus    `bson:"processing_status" json:"processing_status"`
	ErrorMessage     string              `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UserID           primitive.ObjectID  `bson:"user_id" json:"user_id"`
	DealID           *primitive.ObjectID `bson:"deal_id,omitempty" json:"deal_id,omitempty"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updated_at"`
}

// DocumentChunk is one retrievable unit of a document's extracted text.
// Rows are written in a single batch once segmentation completes and are
// immutable afterwards.
type DocumentChunk struct {
	ID          string             `bson:"_id" json:"id"`
	DocumentID  primitive.ObjectID `bson:"document_id" json:"document_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	ChunkIndex  int                `bson:"chunk_index" json:"chunk_index"`
	Content     string             `bson:"content" json:"content"`
	PageNumber  *int               `bson:"page_number,omitempty" json:"page_number,omitempty"`
	StartOffset int                `bson:"start_offset" json:"start_offset"`
	EndOffset   int                `bson:"end_offset" json:"end_offset"`
	TokenCount  int                `bson:"token_count" json:"token_count"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ProcessingStatus is the document lifecycle state machine:
// PENDING -> PROCESSING -> {COMPLETED | FAILED}. Terminal states never
// transition further; a re-upload creates a new Document.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DocumentType is a closed category inferred from the original filename.
type DocumentType string

const (
	TypeMeetingMinutes DocumentType = "MEETING_MINUTES"
	TypeProposal       DocumentType = "PROPOSAL"
	TypeQuotation      DocumentType = "QUOTATION"
	TypeEmailLog       DocumentType = "EMAIL_LOG"
	TypeContract       DocumentType = "CONTRACT"
	TypeTechnicalSpec  DocumentType = "TECHNICAL_SPEC"
	TypeOther          DocumentType = "OTHER"
)

// DocumentResponse is the API projection of a Document.
type DocumentResponse struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	DocumentType     string    `json:"document_type"`
	ProcessingStatus string    `json:"processing_status"`
	TotalPages       *int      `json:"total_pages,omitempty"`
	TotalChunks      int       `json:"total_chunks"`
	FileSize         int64     `json:"file_size"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	DealID           string    `json:"deal_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToResponse maps a Document to its API projection. The original filename
// is what callers see; the stored name stays internal.
func (d *Document) ToResponse() DocumentResponse {
	resp := DocumentResponse{
		ID:               d.ID.Hex(),
		FileName:         d.OriginalFileName,
		DocumentType:     string(d.DocumentType),
		ProcessingStatus: string(d.ProcessingStatus),
		TotalPages:       d.TotalPages,
		TotalChunks:      d.TotalChunks,
		FileSize:         d.FileSize,
		ErrorMessage:     d.ErrorMessage,
		CreatedAt:        d.CreatedAt,
	}
	if d.DealID != nil {
		resp.DealID = d.DealID.Hex()
	}
	return resp
}
