package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ai-sales-brain/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = mongo.ErrNoDocuments

// DocumentStore persists Document rows. Status and count mutations are
// written as they occur so an external status read mid-pipeline reflects
// true progress.
type DocumentStore struct {
	col *mongo.Collection
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{col: db.Collection("documents")}
}

func (s *DocumentStore) Insert(ctx context.Context, doc *models.Document) error {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *DocumentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := s.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Document, error) {
	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteByIDAndUser removes a document row, enforcing ownership. Returns
// mongo.ErrNoDocuments when the caller does not own the document.
func (s *DocumentStore) DeleteByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus advances the processing state machine. The filter excludes
// terminal states so COMPLETED/FAILED rows can never transition again.
func (s *DocumentStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProcessingStatus, errorMessage string) error {
	set := bson.M{
		"processing_status": status,
		"updated_at":        time.Now(),
	}
	if errorMessage != "" {
		set["error_message"] = errorMessage
	}
	_, err := s.col.UpdateOne(ctx,
		bson.M{
			"_id": id,
			"processing_status": bson.M{
				"$nin": []models.ProcessingStatus{models.StatusCompleted, models.StatusFailed},
			},
		},
		bson.M{"$set": set},
	)
	return err
}

func (s *DocumentStore) SetTotalPages(ctx context.Context, id primitive.ObjectID, pages *int) error {
	if pages == nil {
		return nil
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"total_pages": pages, "updated_at": time.Now()},
	})
	return err
}

func (s *DocumentStore) SetTotalChunks(ctx context.Context, id primitive.ObjectID, totalChunks int) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"total_chunks": totalChunks, "updated_at": time.Now()},
	})
	return err
}

// FindStuckProcessing returns documents sitting in PROCESSING since before
// the cutoff. Used by the janitor for detection only.
func (s *DocumentStore) FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"processing_status": models.StatusProcessing,
		"updated_at":        bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ChunkStore persists DocumentChunk rows. Chunks for one document are
// written in a single batch and never updated afterwards.
type ChunkStore struct {
	col *mongo.Collection
}

func NewChunkStore(db *mongo.Database) *ChunkStore {
	return &ChunkStore{col: db.Collection("document_chunks")}
}

func (s *ChunkStore) InsertBatch(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(chunks))
	for i := range chunks {
		docs[i] = chunks[i]
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

func (s *ChunkStore) CountByDocument(ctx context.Context, documentID primitive.ObjectID) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"document_id": documentID})
}

func (s *ChunkStore) IDsByDocument(ctx context.Context, documentID primitive.ObjectID) ([]string, error) {
	cursor, err := s.col.Find(ctx, bson.M{"document_id": documentID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cursor.Err()
}

// DeleteByDocument cascades chunk rows when a document is removed by an
// external flow. Vector index entries are purged separately.
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID primitive.ObjectID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"document_id": documentID})
	return err
}
