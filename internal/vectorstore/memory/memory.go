package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/nhle/maildigest/internal/rag"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// It mirrors the semantics of the Chroma-backed index (idempotent upsert by
// id, ranked query) and is used in tests and for local experimentation.
type Index struct {
	mu      sync.RWMutex
	entries map[string]rag.Entry
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{entries: make(map[string]rag.Entry)}
}

// Upsert stores the entries; an existing id is overwritten.
func (x *Index) Upsert(_ context.Context, entries []rag.Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		x.entries[e.ID] = e
	}
	return nil
}

// Query returns up to k documents ranked by descending cosine similarity to
// the given embedding. Ties break on entry id so ranking is deterministic.
func (x *Index) Query(
	_ context.Context,
	embedding []float32,
	k int,
) ([]string, error) {
	if k <= 0 {
		k = 5
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		id    string
		doc   string
		score float64
	}

	ranked := make([]scored, 0, len(x.entries))
	for id, e := range x.entries {
		ranked = append(ranked, scored{
			id:    id,
			doc:   e.Document,
			score: cosine(embedding, e.Embedding),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	docs := make([]string, 0, k)
	for i := 0; i < k; i++ {
		docs = append(docs, ranked[i].doc)
	}
	return docs, nil
}

// Count reports the number of stored entries.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
