package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/models"
)

type fakeProcessor struct {
	documentID primitive.ObjectID
	data       []byte
	calls      int
	chunks     int
	err        error
}

func (f *fakeProcessor) Process(ctx context.Context, documentID primitive.ObjectID, data []byte) (int, error) {
	f.calls++
	f.documentID = documentID
	f.data = data
	return f.chunks, f.err
}

type fakeFailer struct {
	id      primitive.ObjectID
	status  models.ProcessingStatus
	message string
	calls   int
}

func (f *fakeFailer) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProcessingStatus, errorMessage string) error {
	f.calls++
	f.id = id
	f.status = status
	f.message = errorMessage
	return nil
}

func newTask(t *testing.T, documentID, filePath string) *asynq.Task {
	t.Helper()
	task, err := NewDocumentProcessTask(documentID, filePath)
	if err != nil {
		t.Fatalf("failed to build task: %v", err)
	}
	return task
}

func TestHandleDocumentProcessReadsFileAndRunsPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("quarterly numbers"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	processor := &fakeProcessor{chunks: 3}
	failer := &fakeFailer{}
	p := NewTaskProcessor(processor, failer, nil)

	documentID := primitive.NewObjectID()
	err := p.HandleDocumentProcess(context.Background(), newTask(t, documentID.Hex(), path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if processor.calls != 1 {
		t.Fatalf("pipeline ran %d times, want 1", processor.calls)
	}
	if processor.documentID != documentID {
		t.Errorf("pipeline got document %s, want %s", processor.documentID.Hex(), documentID.Hex())
	}
	if string(processor.data) != "quarterly numbers" {
		t.Errorf("pipeline got data %q", processor.data)
	}
	if failer.calls != 0 {
		t.Errorf("status written %d times outside the pipeline", failer.calls)
	}
}

func TestHandleDocumentProcessUnreadableFileMarksFailed(t *testing.T) {
	processor := &fakeProcessor{}
	failer := &fakeFailer{}
	p := NewTaskProcessor(processor, failer, nil)

	documentID := primitive.NewObjectID()
	missing := filepath.Join(t.TempDir(), "gone.pdf")
	err := p.HandleDocumentProcess(context.Background(), newTask(t, documentID.Hex(), missing))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error should skip retries, got %v", err)
	}

	if processor.calls != 0 {
		t.Error("pipeline should not run when the file cannot be read")
	}
	if failer.calls != 1 || failer.id != documentID {
		t.Fatalf("document status not recorded: calls=%d id=%s", failer.calls, failer.id.Hex())
	}
	if failer.status != models.StatusFailed {
		t.Errorf("status = %s, want FAILED", failer.status)
	}
	if failer.message == "" {
		t.Error("failure message not recorded")
	}
}

func TestHandleDocumentProcessPipelineErrorSkipsRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	processor := &fakeProcessor{err: errors.New("index unreachable")}
	p := NewTaskProcessor(processor, &fakeFailer{}, nil)

	err := p.HandleDocumentProcess(context.Background(), newTask(t, primitive.NewObjectID().Hex(), path))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error should skip retries, got %v", err)
	}
}

func TestHandleDocumentProcessInvalidDocumentID(t *testing.T) {
	processor := &fakeProcessor{}
	failer := &fakeFailer{}
	p := NewTaskProcessor(processor, failer, nil)

	err := p.HandleDocumentProcess(context.Background(), newTask(t, "not-an-object-id", "/tmp/x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error should skip retries, got %v", err)
	}
	if processor.calls != 0 || failer.calls != 0 {
		t.Error("nothing should run for an unparseable document id")
	}
}
