package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegmentSingleChunk(t *testing.T) {
	svc := NewChunkingService(100, 20)

	chunks := svc.Segment("Alpha beta gamma.", "small.txt")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	c := chunks[0]
	if c.Content != "Alpha beta gamma." {
		t.Errorf("unexpected content: %q", c.Content)
	}
	if c.ChunkIndex != 0 {
		t.Errorf("expected index 0, got %d", c.ChunkIndex)
	}
	if c.StartOffset != 0 || c.EndOffset != 17 {
		t.Errorf("unexpected offsets: [%d, %d)", c.StartOffset, c.EndOffset)
	}
	if c.TokenCount != 5 {
		t.Errorf("expected 5 tokens for 17 chars, got %d", c.TokenCount)
	}
}

func TestSegmentCleansText(t *testing.T) {
	svc := NewChunkingService(100, 20)

	chunks := svc.Segment("Line1\r\nLine2\n\n\n\nLine3\t\tx   y", "messy.txt")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "Line1\nLine2\n\nLine3 x y"
	if chunks[0].Content != want {
		t.Errorf("cleaning mismatch:\n got %q\nwant %q", chunks[0].Content, want)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	svc := NewChunkingService(100, 20)

	for _, input := range []string{"", "   \n\t  \r\n "} {
		if chunks := svc.Segment(input, "blank.txt"); len(chunks) != 0 {
			t.Errorf("input %q: expected no chunks, got %d", input, len(chunks))
		}
	}
}

func TestSegmentSlidingWindow(t *testing.T) {
	svc := NewChunkingService(20, 5)

	text := "Aaaa bbbb. Cccc dddd. Eeee ffff. Gggg hhhh."
	chunks := svc.Segment(text, "windows.txt")

	wantContents := []string{
		"Aaaa bbbb. Cccc",
		"Cccc dddd. Eeee",
		"Eeee ffff. Gggg",
		"Gggg hhhh.",
	}
	if len(chunks) != len(wantContents) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(wantContents), len(chunks), chunks)
	}

	wantOffsets := [][2]int{{0, 16}, {11, 27}, {22, 38}, {33, 43}}
	for i, c := range chunks {
		if c.Content != wantContents[i] {
			t.Errorf("chunk %d content: got %q, want %q", i, c.Content, wantContents[i])
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: stored index %d", i, c.ChunkIndex)
		}
		if c.StartOffset != wantOffsets[i][0] || c.EndOffset != wantOffsets[i][1] {
			t.Errorf("chunk %d offsets: got [%d, %d), want [%d, %d)",
				i, c.StartOffset, c.EndOffset, wantOffsets[i][0], wantOffsets[i][1])
		}
	}

	// Consecutive windows share the overlap region.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset >= chunks[i-1].EndOffset {
			t.Errorf("chunks %d and %d do not overlap", i-1, i)
		}
	}
}

func TestSegmentPrefersSentenceBoundary(t *testing.T) {
	svc := NewChunkingService(20, 5)

	chunks := svc.Segment("Hello world. Goodbye planet earth okay", "bounds.txt")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].Content != "Hello world." {
		t.Errorf("expected cut after sentence terminator, got %q", chunks[0].Content)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	svc := NewChunkingService(20, 5)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
	first := svc.Segment(text, "repeat.txt")
	second := svc.Segment(text, "repeat.txt")

	if !reflect.DeepEqual(first, second) {
		t.Error("same input produced different chunks")
	}
}

func TestSegmentTerminatesWithoutBoundaries(t *testing.T) {
	// Overlap larger than the chunk size forces the minimum one-character
	// advance; the walk must still terminate and cover the text.
	svc := NewChunkingService(5, 10)

	text := "abcdefghijkl"
	chunks := svc.Segment(text, "dense.txt")
	if len(chunks) != 8 {
		t.Fatalf("expected 8 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset <= chunks[i-1].StartOffset {
			t.Fatalf("window did not advance between chunks %d and %d", i-1, i)
		}
	}
	if last := chunks[len(chunks)-1]; last.EndOffset != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.EndOffset, len(text))
	}
}
