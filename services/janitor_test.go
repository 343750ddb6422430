package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/models"
)

type fakeStuckFinder struct {
	docs       []models.Document
	err        error
	lastCutoff time.Time
}

func (f *fakeStuckFinder) FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	f.lastCutoff = cutoff
	return f.docs, f.err
}

func TestJanitorScanReportsStuckDocuments(t *testing.T) {
	stuck := models.Document{
		ID:               primitive.NewObjectID(),
		OriginalFileName: "hung.pdf",
		UserID:           primitive.NewObjectID(),
		ProcessingStatus: models.StatusProcessing,
		UpdatedAt:        time.Now().Add(-2 * time.Hour),
	}
	finder := &fakeStuckFinder{docs: []models.Document{stuck}}
	janitor := NewJanitorService(finder, 30*time.Minute, 15*time.Minute)

	ids := janitor.Scan(context.Background())
	if len(ids) != 1 || ids[0] != stuck.ID {
		t.Fatalf("expected stuck document reported, got %v", ids)
	}

	wantCutoff := time.Now().Add(-30 * time.Minute)
	if diff := finder.lastCutoff.Sub(wantCutoff); diff < -time.Second || diff > time.Second {
		t.Errorf("cutoff off by %v", diff)
	}
}

func TestJanitorScanEmptyAndErrors(t *testing.T) {
	janitor := NewJanitorService(&fakeStuckFinder{}, 30*time.Minute, 15*time.Minute)
	if ids := janitor.Scan(context.Background()); ids != nil {
		t.Errorf("expected nil for clean scan, got %v", ids)
	}

	janitor = NewJanitorService(&fakeStuckFinder{err: errors.New("db down")}, 30*time.Minute, 15*time.Minute)
	if ids := janitor.Scan(context.Background()); ids != nil {
		t.Errorf("expected nil on scan error, got %v", ids)
	}
}
