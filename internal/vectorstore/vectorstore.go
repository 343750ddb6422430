package vectorstore

import (
	"context"
	"errors"
)

// Metadata keys attached to every indexed chunk.
const (
	MetaUserID     = "userId"
	MetaDocumentID = "documentId"
	MetaFileName   = "fileName"
	MetaChunkIndex = "chunkIndex"
	MetaPageNumber = "pageNumber"
)

// ErrMissingScope is returned when a similarity search arrives without a
// user scope. Scoping is a hard security invariant: an absent or malformed
// filter must fail closed, never fall back to an unscoped search.
var ErrMissingScope = errors.New("vectorstore: similarity search requires a user scope filter")

// Entry is one chunk to be embedded and stored. The index owns embedding
// generation; callers only ever hand over text.
type Entry struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Hit is one similarity search result. Distance is nil when the backend
// does not report a distance metric.
type Hit struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance *float64
}

// Filter restricts a similarity search to one user's chunks.
type Filter struct {
	UserID string
}

// Index is the narrow contract the ingestion pipeline and retrieval engine
// consume. Implementations must support concurrent Adds from independent
// documents.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Delete(ctx context.Context, ids []string) error
	Search(ctx context.Context, query string, topK int, threshold float64, filter Filter) ([]Hit, error)
}
