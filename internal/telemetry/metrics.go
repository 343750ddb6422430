package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	DocumentsProcessed metric.Int64Counter
	ProcessingTime     metric.Float64Histogram
	ChunksIndexed      metric.Int64Counter
	QueriesAnswered    metric.Int64Counter
	RetrievedHits      metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("ai-sales-brain")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsProcessed, err := meter.Int64Counter(
		"documents.processed.total",
		metric.WithDescription("Documents processed by final status"),
	)
	if err != nil {
		return nil, err
	}

	processingTime, err := meter.Float64Histogram(
		"documents.processing.duration",
		metric.WithDescription("Document processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"chunks.indexed.total",
		metric.WithDescription("Chunks stored in the vector index"),
	)
	if err != nil {
		return nil, err
	}

	queriesAnswered, err := meter.Int64Counter(
		"chat.queries.total",
		metric.WithDescription("Chat queries answered by confidence grade"),
	)
	if err != nil {
		return nil, err
	}

	retrievedHits, err := meter.Int64Counter(
		"retrieval.hits.total",
		metric.WithDescription("Chunks retrieved across all queries"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		DocumentsProcessed: documentsProcessed,
		ProcessingTime:     processingTime,
		ChunksIndexed:      chunksIndexed,
		QueriesAnswered:    queriesAnswered,
		RetrievedHits:      retrievedHits,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordDocumentProcessed records one document leaving the pipeline
func (m *Metrics) RecordDocumentProcessed(status string, duration float64, chunks int64) {
	attrs := []attribute.KeyValue{
		attribute.String("document.status", status),
	}

	m.DocumentsProcessed.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.ProcessingTime.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	if chunks > 0 {
		m.ChunksIndexed.Add(context.Background(), chunks)
	}
}

// RecordQuery records one answered chat query
func (m *Metrics) RecordQuery(confidence string, hits int64) {
	attrs := []attribute.KeyValue{
		attribute.String("chat.confidence", confidence),
	}

	m.QueriesAnswered.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RetrievedHits.Add(context.Background(), hits)
}
