package chunker

import (
	"strings"
	"testing"

	"github.com/nhle/maildigest/internal/model"
)

func TestChunkSplitsParagraphs(t *testing.T) {
	ch := New(DefaultMinChunkLen)

	msg := model.Message{
		ID:      "m1",
		Subject: "Quarterly review",
		Body: "The first paragraph has enough text to survive the filter.\n\n" +
			"The second paragraph also has enough text to survive the filter.",
	}

	chunks := ch.Chunk(msg)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].ID != "email_m1_chunk_0" {
		t.Errorf("unexpected first chunk id: %q", chunks[0].ID)
	}
	if chunks[1].ID != "email_m1_chunk_1" {
		t.Errorf("unexpected second chunk id: %q", chunks[1].ID)
	}

	want := "Email Subject: Quarterly review\n\n" +
		"The first paragraph has enough text to survive the filter."
	if chunks[0].Text != want {
		t.Errorf("chunk text mismatch:\ngot  %q\nwant %q", chunks[0].Text, want)
	}

	for _, c := range chunks {
		if c.MessageID != "m1" {
			t.Errorf("chunk %s has message id %q", c.ID, c.MessageID)
		}
		if c.Subject != "Quarterly review" {
			t.Errorf("chunk %s has subject %q", c.ID, c.Subject)
		}
	}
}

func TestChunkDropsShortParagraphs(t *testing.T) {
	ch := New(DefaultMinChunkLen)

	msg := model.Message{
		ID:      "m2",
		Subject: "Short",
		Body: "Hi\n\n" +
			"This middle paragraph is comfortably longer than the minimum.\n\n" +
			"Thanks",
	}

	chunks := ch.Chunk(msg)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	// Ordinals count surviving chunks, not source paragraphs.
	if chunks[0].ID != "email_m2_chunk_0" {
		t.Errorf("unexpected chunk id: %q", chunks[0].ID)
	}
}

func TestChunkEmptyAndWhitespaceBody(t *testing.T) {
	ch := New(DefaultMinChunkLen)

	for _, body := range []string{"", "   \n\n  \t ", "Hi"} {
		chunks := ch.Chunk(model.Message{ID: "m3", Subject: "x", Body: body})
		if len(chunks) != 0 {
			t.Errorf("body %q: expected 0 chunks, got %d", body, len(chunks))
		}
	}
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	ch := New(DefaultMinChunkLen)

	// 29 runes but well over 30 bytes in UTF-8.
	body := strings.Repeat("é", 29)
	chunks := ch.Chunk(model.Message{ID: "m4", Subject: "s", Body: body})
	if len(chunks) != 0 {
		t.Fatalf("expected 29-rune paragraph to be dropped, got %d chunks", len(chunks))
	}

	body = strings.Repeat("é", 30)
	chunks = ch.Chunk(model.Message{ID: "m4", Subject: "s", Body: body})
	if len(chunks) != 1 {
		t.Fatalf("expected 30-rune paragraph to survive, got %d chunks", len(chunks))
	}
}

func TestChunkIsDeterministic(t *testing.T) {
	ch := New(DefaultMinChunkLen)

	msg := model.Message{
		ID:      "m5",
		Subject: "Stable",
		Body: "A paragraph long enough to be kept by the chunk filter.\n\n" +
			"Another paragraph long enough to be kept by the chunk filter.",
	}

	first := ch.Chunk(msg)
	second := ch.Chunk(msg)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("abc", 7); got != "email_abc_chunk_7" {
		t.Errorf("unexpected chunk id: %q", got)
	}
}
