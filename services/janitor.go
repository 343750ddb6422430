package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/models"
)

// StuckDocumentFinder reports documents that never left PROCESSING.
type StuckDocumentFinder interface {
	FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.Document, error)
}

// JanitorService periodically scans for documents stuck in PROCESSING,
// usually after a worker crash mid-pipeline. Detection only: stuck
// documents are surfaced in the logs for operators, never auto-resumed.
type JanitorService struct {
	documents  StuckDocumentFinder
	stuckAfter time.Duration
	interval   time.Duration
	scheduler  *gocron.Scheduler
}

func NewJanitorService(documents StuckDocumentFinder, stuckAfter, interval time.Duration) *JanitorService {
	return &JanitorService{
		documents:  documents,
		stuckAfter: stuckAfter,
		interval:   interval,
		scheduler:  gocron.NewScheduler(time.UTC),
	}
}

func (j *JanitorService) Start() error {
	_, err := j.scheduler.Every(j.interval).Tag("stuck-documents").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		j.Scan(ctx)
	})
	if err != nil {
		return err
	}
	j.scheduler.StartAsync()
	logger.Info("Janitor started", "interval", j.interval.String(), "stuck_after", j.stuckAfter.String())
	return nil
}

func (j *JanitorService) Stop() {
	j.scheduler.Stop()
}

// Scan performs one detection pass and returns the stuck document IDs.
func (j *JanitorService) Scan(ctx context.Context) []primitive.ObjectID {
	cutoff := time.Now().Add(-j.stuckAfter)
	docs, err := j.documents.FindStuckProcessing(ctx, cutoff)
	if err != nil {
		logger.Error("Janitor scan failed", "error", err)
		return nil
	}
	if len(docs) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		logger.Warn("Document stuck in PROCESSING",
			"document_id", doc.ID.Hex(),
			"file_name", doc.OriginalFileName,
			"user_id", doc.UserID.Hex(),
			"since", doc.UpdatedAt.Format(time.RFC3339))
	}
	return ids
}
