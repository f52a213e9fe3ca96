package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/maildigest/internal/chunker"
	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/rag"
	"github.com/nhle/maildigest/internal/store"
)

// DefaultPause is the delay between messages during indexing, to stay
// under embedding provider rate limits.
const DefaultPause = time.Second

// Stats summarizes one indexing run.
type Stats struct {
	Processed int
	Failed    int
}

// Indexer embeds unindexed messages and upserts them into the vector
// index. A message is marked indexed only after its chunks have been
// durably upserted; failures leave it unindexed so the next run retries
// it from scratch.
type Indexer struct {
	log      *logger.Logger
	store    store.Store
	chunker  *chunker.Chunker
	embedder rag.Embedder
	index    rag.VectorIndex
	pause    time.Duration
}

// New creates an indexer. A non-positive pause falls back to DefaultPause.
func New(
	log *logger.Logger,
	st store.Store,
	ch *chunker.Chunker,
	embedder rag.Embedder,
	index rag.VectorIndex,
	pause time.Duration,
) *Indexer {
	if pause <= 0 {
		pause = DefaultPause
	}

	return &Indexer{
		log:      log.With("component", "indexer"),
		store:    st,
		chunker:  ch,
		embedder: embedder,
		index:    index,
		pause:    pause,
	}
}

// Run processes every unindexed message once. Failures are isolated per
// message: a failed message is logged and skipped, and the remaining
// messages still get processed.
func (ix *Indexer) Run(ctx context.Context) (Stats, error) {
	started := time.Now()

	messages, err := ix.store.ListUnindexed(ctx)
	if err != nil {
		return Stats{}, err
	}

	if len(messages) == 0 {
		ix.log.Info("no unindexed messages")
		return Stats{}, nil
	}

	ix.log.Info("indexing messages", "count", len(messages))

	var stats Stats
	succeeded := make([]string, 0, len(messages))

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks := ix.chunker.Chunk(msg)
		if len(chunks) == 0 {
			// Nothing worth embedding; the message is still done.
			succeeded = append(succeeded, msg.ID)
			stats.Processed++
			continue
		}

		if err := ix.indexChunks(ctx, chunks); err != nil {
			ix.log.Error("indexing message failed",
				"id", msg.ID,
				"subject", truncateSubject(msg.Subject),
				"error", err,
			)
			stats.Failed++
			continue
		}

		succeeded = append(succeeded, msg.ID)
		stats.Processed++

		select {
		case <-ctx.Done():
		case <-time.After(ix.pause):
		}
	}

	if err := ix.store.MarkIndexed(ctx, succeeded); err != nil {
		return stats, err
	}

	run := model.IndexRun{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Processed:  stats.Processed,
		Failed:     stats.Failed,
	}
	if err := ix.store.RecordIndexRun(ctx, run); err != nil {
		ix.log.Warn("recording index run failed", "error", err)
	}

	ix.log.Info("indexing finished",
		"processed", stats.Processed,
		"failed", stats.Failed,
	)

	return stats, nil
}

// indexChunks embeds all chunks of one message in a single batch and
// upserts them together.
func (ix *Indexer) indexChunks(ctx context.Context, chunks []model.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := ix.embedder.Embed(ctx, texts, rag.IntentDocument)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf(
			"embedding count mismatch: %d chunks, %d vectors",
			len(chunks), len(embeddings),
		)
	}

	entries := make([]rag.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = rag.Entry{
			ID:        c.ID,
			Embedding: embeddings[i],
			Document:  c.Text,
			Metadata: map[string]string{
				"message_id": c.MessageID,
				"subject":    c.Subject,
			},
		}
	}

	return ix.index.Upsert(ctx, entries)
}

func truncateSubject(subject string) string {
	const max = 80
	if len(subject) <= max {
		return subject
	}
	return subject[:max] + "..."
}
