package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/telemetry"
	"ai-sales-brain/models"
)

const TaskDocumentProcess = "document:process"

type DocumentProcessPayload struct {
	DocumentID string `json:"document_id"`
	FilePath   string `json:"file_path"`
}

// NewDocumentProcessTask builds the ingestion task for one uploaded
// document. Retries are disabled at the queue level: the pipeline records
// FAILED itself and terminal documents never re-enter processing.
func NewDocumentProcessTask(documentID, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{
		DocumentID: documentID,
		FilePath:   filePath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentProcess,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// DocumentProcessor runs the ingestion pipeline for one enqueued document
// and reports how many chunks were indexed.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID primitive.ObjectID, data []byte) (int, error)
}

// DocumentFailer records a terminal failure for a document whose task died
// before the pipeline could run.
type DocumentFailer interface {
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ProcessingStatus, errorMessage string) error
}

type TaskProcessor struct {
	processing DocumentProcessor
	documents  DocumentFailer
	metrics    *telemetry.Metrics
}

func NewTaskProcessor(processing DocumentProcessor, documents DocumentFailer, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{processing: processing, documents: documents, metrics: metrics}
}

func (p *TaskProcessor) HandleDocumentProcess(ctx context.Context, t *asynq.Task) error {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	documentID, err := primitive.ObjectIDFromHex(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	logger.Info("Picked up document task", "document_id", payload.DocumentID)

	data, err := os.ReadFile(payload.FilePath)
	if err != nil {
		// The pipeline never ran, so the document would stay PENDING
		// forever unless the failure is recorded here.
		message := fmt.Sprintf("failed to read uploaded file: %v", err)
		if statusErr := p.documents.SetStatus(ctx, documentID, models.StatusFailed, message); statusErr != nil {
			logger.Error("Failed to mark unreadable document failed",
				"document_id", payload.DocumentID, "error", statusErr)
		}
		if p.metrics != nil {
			p.metrics.RecordDocumentProcessed("failed", 0, 0)
		}
		return fmt.Errorf("%s: %w", message, asynq.SkipRetry)
	}

	start := time.Now()
	chunks, err := p.processing.Process(ctx, documentID, data)
	if p.metrics != nil {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		p.metrics.RecordDocumentProcessed(status, time.Since(start).Seconds(), int64(chunks))
	}
	if err != nil {
		// The pipeline has already marked the document FAILED.
		return errors.Join(err, asynq.SkipRetry)
	}
	return nil
}

// NewMux registers all task handlers.
func NewMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDocumentProcess, processor.HandleDocumentProcess)
	return mux
}

// Client enqueues ingestion tasks from the API process.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, redisPassword string) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
		}),
	}
}

func (c *Client) EnqueueDocumentProcess(documentID, filePath string) error {
	task, err := NewDocumentProcessTask(documentID, filePath)
	if err != nil {
		return err
	}
	info, err := c.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue document task: %w", err)
	}
	logger.Info("Enqueued document task", "task_id", info.ID, "document_id", documentID)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
