package ingest

import (
	"context"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/store"
)

// Source lists and fetches messages from a mailbox. Listing the same id
// on consecutive runs is expected; the store deduplicates.
type Source interface {
	ListNewMessageIDs(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, id string) (*model.Message, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Failed     int
}

// Service pulls new messages from the source into the durable store.
type Service struct {
	log    *logger.Logger
	source Source
	store  store.Store
}

// New creates an ingestion service.
func New(log *logger.Logger, source Source, st store.Store) *Service {
	return &Service{
		log:    log.With("component", "ingest"),
		source: source,
		store:  st,
	}
}

// Run fetches every new message and stores it. A message that fails to
// fetch or store is logged and skipped; the rest of the batch proceeds.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	ids, err := s.source.ListNewMessageIDs(ctx)
	if err != nil {
		return Stats{}, err
	}

	s.log.Info("fetching messages", "count", len(ids))

	var stats Stats
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		msg, err := s.source.Fetch(ctx, id)
		if err != nil {
			s.log.Error("fetching message failed", "id", id, "error", err)
			stats.Failed++
			continue
		}
		stats.Fetched++

		inserted, err := s.store.UpsertMessage(ctx, *msg)
		if err != nil {
			s.log.Error("storing message failed", "id", id, "error", err)
			stats.Failed++
			continue
		}

		if inserted {
			stats.Inserted++
			s.log.Debug("message stored", "id", id)
		} else {
			stats.Duplicates++
			s.log.Debug("message already stored", "id", id)
		}
	}

	s.log.Info("ingestion finished",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)

	return stats, nil
}
