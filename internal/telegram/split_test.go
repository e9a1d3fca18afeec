package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("got %v, want single chunk", chunks)
	}
}

func TestSplitMessage_PrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	chunks := splitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 60) {
		t.Errorf("first chunk %q does not end at the paragraph break", chunks[0])
	}
}

func TestSplitMessage_FallsBackToSentence(t *testing.T) {
	text := strings.Repeat("a", 60) + ". " + strings.Repeat("b", 60)
	chunks := splitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk %q does not end at the sentence boundary", chunks[0])
	}
}

func TestSplitMessage_HardSplitWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := splitMessage(text, 100)
	for i, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk %d has length %d, want <= 100", i, len(c))
		}
	}
	if joined := strings.Join(chunks, ""); joined != text {
		t.Fatal("hard split lost content")
	}
}

func TestSplitMessage_EveryChunkWithinLimit(t *testing.T) {
	text := strings.Repeat("some words here. ", 50)
	for _, c := range splitMessage(text, 120) {
		if len(c) > 120 {
			t.Fatalf("chunk %q exceeds limit", c)
		}
		if c == "" {
			t.Fatal("empty chunk emitted")
		}
	}
}
