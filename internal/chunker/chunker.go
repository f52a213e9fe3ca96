package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nhle/maildigest/internal/model"
)

// DefaultMinChunkLen filters out tiny paragraphs like greetings and
// signature lines.
const DefaultMinChunkLen = 30

// Chunker splits a message body into retrievable paragraph chunks. The
// policy is deterministic: chunking the same message twice yields identical
// ids and text in the same order.
type Chunker struct {
	minChunkLen int
}

// New creates a Chunker with the given minimum paragraph length in runes.
func New(minChunkLen int) *Chunker {
	if minChunkLen <= 0 {
		minChunkLen = DefaultMinChunkLen
	}
	return &Chunker{minChunkLen: minChunkLen}
}

// Chunk turns one message into zero or more chunks. Paragraphs are split on
// blank lines, trimmed, and dropped when shorter than the minimum length.
// Surviving paragraphs are numbered 0,1,2,... in source order and prefixed
// with a subject context header so each chunk stands alone at retrieval
// time. A message yielding zero chunks is a valid outcome, not an error.
func (c *Chunker) Chunk(msg model.Message) []model.Chunk {
	paragraphs := strings.Split(msg.Body, "\n\n")

	var chunks []model.Chunk
	ordinal := 0
	for _, para := range paragraphs {
		cleaned := strings.TrimSpace(para)
		if utf8.RuneCountInString(cleaned) < c.minChunkLen {
			continue
		}

		chunks = append(chunks, model.Chunk{
			ID:        ChunkID(msg.ID, ordinal),
			Text:      "Email Subject: " + msg.Subject + "\n\n" + cleaned,
			MessageID: msg.ID,
			Subject:   msg.Subject,
		})
		ordinal++
	}

	return chunks
}

// ChunkID derives the stable chunk identifier from a message id and the
// chunk's ordinal within that message.
func ChunkID(messageID string, ordinal int) string {
	return fmt.Sprintf("email_%s_chunk_%d", messageID, ordinal)
}
