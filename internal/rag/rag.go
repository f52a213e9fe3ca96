package rag

import (
	"context"
	"errors"
	"fmt"
)

// EmbedIntent selects the embedding space a text is projected into.
// Document-intent and query-intent vectors are dimensionally identical but
// are computed under different instructions and are not interchangeable:
// documents must be embedded with IntentDocument at index time and queries
// with IntentQuery at retrieval time.
type EmbedIntent string

const (
	IntentDocument EmbedIntent = "RETRIEVAL_DOCUMENT"
	IntentQuery    EmbedIntent = "RETRIEVAL_QUERY"
)

// Embedder converts texts into vectors, 1:1 and order-preserving with its
// input. Implementations must return exactly len(texts) vectors; callers
// treat any count mismatch as a hard error for that unit of work.
type Embedder interface {
	Embed(ctx context.Context, texts []string, intent EmbedIntent) ([][]float32, error)
}

// Generator produces text from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Entry is one record in the vector index, keyed by the chunk id so that
// re-upserting the same id replaces content.
type Entry struct {
	ID        string
	Embedding []float32
	Document  string
	Metadata  map[string]string
}

// VectorIndex is a persistent nearest-neighbor store over chunk entries.
// The similarity metric is cosine for both indexing and querying; mixing
// metrics degrades ranking silently, so the metric is fixed by construction
// rather than validated at runtime.
type VectorIndex interface {
	// Upsert stores the entries, idempotent per entry id.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to k documents ranked by ascending cosine distance
	// to the given embedding.
	Query(ctx context.Context, embedding []float32, k int) ([]string, error)

	// Count reports the number of stored entries, for observability.
	Count(ctx context.Context) (int, error)
}

// TransientError wraps an upstream failure that is expected to succeed on a
// later attempt (rate limits, 5xx responses, network errors). Work items
// that hit one are skipped and left in their pre-failure state so the next
// run retries them; anything not transient is treated as permanent.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error (%s): %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err (or any error in its chain) is a
// TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
