package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"ai-sales-brain/internal/logger"
)

// ExtractionError marks a document fatally unreadable. The pipeline records
// it on the document and does not retry.
type ExtractionError struct {
	FileName string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.FileName, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractionService converts uploaded file bytes into plain text. PDF input
// is read per page; everything else is decoded as UTF-8 text.
type ExtractionService struct{}

func NewExtractionService() *ExtractionService {
	return &ExtractionService{}
}

// Extract returns the trimmed text and a page count for paginated formats.
// The page count is nil for plain text, and empty input yields empty text
// with no error.
func (s *ExtractionService) Extract(data []byte, fileName, contentType string) (string, *int, error) {
	if len(data) == 0 {
		logger.Info("Empty file received", "file", fileName)
		return "", nil, nil
	}

	if isPDF(fileName, contentType) {
		return s.extractFromPDF(data, fileName)
	}

	text := strings.TrimSpace(string(data))
	logger.Info("Extracted plain text", "file", fileName, "chars", len(text))
	return text, nil, nil
}

func (s *ExtractionService) extractFromPDF(data []byte, fileName string) (text string, pageCount *int, err error) {
	// The pdf package panics on some malformed files. Convert those to an
	// ExtractionError so the document lands on the FAILED path.
	defer func() {
		if r := recover(); r != nil {
			text, pageCount = "", nil
			err = &ExtractionError{FileName: fileName, Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, &ExtractionError{FileName: fileName, Err: err}
	}

	pages := reader.NumPage()
	var textBuilder strings.Builder

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", nil, &ExtractionError{FileName: fileName, Err: fmt.Errorf("page %d: %w", i, err)}
		}

		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString(pageText)
	}

	text = strings.TrimSpace(textBuilder.String())
	logger.Info("Extracted PDF text", "file", fileName, "chars", len(text), "pages", pages)
	return text, &pages, nil
}

func isPDF(fileName, contentType string) bool {
	if strings.Contains(contentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}
