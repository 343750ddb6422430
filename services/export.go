package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/models"
)

// DocumentLister returns a user's documents, newest first.
type DocumentLister interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Document, error)
}

// ExportService renders a user's document inventory as an Excel workbook
// so sales teams can review ingestion status outside the API.
type ExportService struct {
	documents DocumentLister
}

func NewExportService(documents DocumentLister) *ExportService {
	return &ExportService{documents: documents}
}

// ExportInventory builds the workbook and returns its bytes plus the row
// count (excluding the header).
func (s *ExportService) ExportInventory(ctx context.Context, userID primitive.ObjectID) (*bytes.Buffer, int, error) {
	docs, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Documents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"File Name", "Type", "Status", "Pages", "Chunks", "Size (bytes)", "Error", "Uploaded At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, doc := range docs {
		row := i + 2
		pages := ""
		if doc.TotalPages != nil {
			pages = fmt.Sprintf("%d", *doc.TotalPages)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), doc.OriginalFileName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), string(doc.DocumentType))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(doc.ProcessingStatus))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), pages)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), doc.TotalChunks)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), doc.FileSize)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), doc.ErrorMessage)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), doc.CreatedAt.Format(time.RFC3339))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, len(docs), nil
}
