package store

import (
	"context"

	"github.com/nhle/maildigest/internal/model"
)

// Store defines the persistence interface for ingested messages and
// indexing run history.
//
// Messages are written once by ingestion; only the indexed flag ever
// changes, and only through MarkIndexed. The flag transition is the
// pipeline's incremental-state machine: a message stays unindexed until all
// of its chunks have been durably upserted into the vector index.
type Store interface {
	// UpsertMessage inserts the message if its id is absent and is a
	// no-op otherwise. It reports whether a new row was created; callers
	// use that for logging only, never for control flow.
	UpsertMessage(ctx context.Context, msg model.Message) (inserted bool, err error)

	// ListUnindexed returns all messages with indexed = false, in
	// insertion order.
	ListUnindexed(ctx context.Context) ([]model.Message, error)

	// MarkIndexed atomically flips indexed to true for exactly the given
	// ids. An empty set is a no-op. The batch either fully applies or
	// not at all.
	MarkIndexed(ctx context.Context, ids []string) error

	// CountMessages returns the total number of stored messages.
	CountMessages(ctx context.Context) (int, error)

	// RecordIndexRun persists the summary of one indexing pass.
	RecordIndexRun(ctx context.Context, run model.IndexRun) error

	// RecentIndexRuns returns the most recent run summaries, newest
	// first.
	RecentIndexRuns(ctx context.Context, limit int) ([]model.IndexRun, error)
}
