package services

import (
	"regexp"
	"strings"

	"ai-sales-brain/internal/logger"
)

var (
	crlfRegex       = regexp.MustCompile(`\r\n?`)
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
	horizSpaceRegex = regexp.MustCompile(`[ \t]+`)
)

// ChunkingService splits cleaned document text into overlapping,
// boundary-aware segments. It is a pure function over strings: the same
// input always produces the same chunks.
type ChunkingService struct {
	chunkSize    int
	chunkOverlap int
}

func NewChunkingService(chunkSize, chunkOverlap int) *ChunkingService {
	return &ChunkingService{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ChunkInfo is one segment of the cleaned text. Offsets index into the
// cleaned text, not the raw input.
type ChunkInfo struct {
	Content     string
	ChunkIndex  int
	StartOffset int
	EndOffset   int
	TokenCount  int
}

// Segment walks the cleaned text with a sliding window of chunkSize
// characters, cutting at the nearest sentence terminator in the second half
// of the window, falling back to whitespace, then to the raw boundary. The
// next window starts overlap characters before the previous cut but always
// advances by at least one character.
func (s *ChunkingService) Segment(text, documentName string) []ChunkInfo {
	chunks := []ChunkInfo{}

	cleaned := cleanText(text)
	if cleaned == "" {
		return chunks
	}

	start := 0
	chunkIndex := 0
	previousStart := -1

	for start < len(cleaned) {
		// Progress guarantee
		if start == previousStart {
			break
		}
		previousStart = start

		end := start + s.chunkSize
		if end > len(cleaned) {
			end = len(cleaned)
		}

		if end < len(cleaned) {
			end = s.findBoundary(cleaned, start, end)
		}

		content := strings.TrimSpace(cleaned[start:end])
		if content != "" {
			chunks = append(chunks, ChunkInfo{
				Content:     content,
				ChunkIndex:  chunkIndex,
				StartOffset: start,
				EndOffset:   end,
				TokenCount:  estimateTokenCount(content),
			})
			chunkIndex++
		}

		if end >= len(cleaned) {
			break
		}

		newStart := end - s.chunkOverlap
		if newStart <= start {
			newStart = start + 1
		}
		start = newStart
	}

	logger.Debug("Segmented document text", "document", documentName, "chunks", len(chunks))
	return chunks
}

// cleanText normalizes line endings, collapses 3+ newlines to 2, collapses
// runs of horizontal whitespace to one space and trims.
func cleanText(text string) string {
	cleaned := crlfRegex.ReplaceAllString(text, "\n")
	cleaned = blankRunRegex.ReplaceAllString(cleaned, "\n\n")
	cleaned = horizSpaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// findBoundary searches backward from the window end for a sentence
// terminator within the second half of the window, then for whitespace.
// When neither exists the raw window boundary stands.
func (s *ChunkingService) findBoundary(text string, start, end int) int {
	searchStart := start + s.chunkSize/2
	if searchStart < start {
		searchStart = start
	}

	for i := end; i > searchStart; i-- {
		switch text[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	for i := end; i > searchStart; i-- {
		c := text[i-1]
		if c == ' ' || c == '\t' || c == '\n' {
			return i
		}
	}
	return end
}

// estimateTokenCount approximates tokens at ~4 characters each, rounded up.
func estimateTokenCount(text string) int {
	return (len(text) + 3) / 4
}
