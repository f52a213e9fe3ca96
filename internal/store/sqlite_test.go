package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/tests/testutil"
)

func testMessage(id string) model.Message {
	return model.Message{
		ID:         id,
		Sender:     "Alice Example",
		Subject:    "Subject " + id,
		Body:       "Body of message " + id,
		ReceivedAt: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}
}

func TestUpsertMessageDeduplicates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	inserted, err := s.UpsertMessage(ctx, testMessage("m1"))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !inserted {
		t.Fatal("first upsert should report inserted")
	}

	inserted, err = s.UpsertMessage(ctx, testMessage("m1"))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if inserted {
		t.Fatal("second upsert should report duplicate")
	}

	count, err := s.CountMessages(ctx)
	if err != nil {
		t.Fatalf("counting messages: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored message, got %d", count)
	}
}

func TestUpsertKeepsFirstVersion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	original := testMessage("m1")
	if _, err := s.UpsertMessage(ctx, original); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	changed := original
	changed.Body = "a different body"
	if _, err := s.UpsertMessage(ctx, changed); err != nil {
		t.Fatalf("upsert changed: %v", err)
	}

	msgs, err := s.ListUnindexed(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Body != original.Body {
		t.Errorf("stored body was overwritten: %q", msgs[0].Body)
	}
}

func TestListUnindexedAndMarkIndexed(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := s.UpsertMessage(ctx, testMessage(id)); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	msgs, err := s.ListUnindexed(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 unindexed messages, got %d", len(msgs))
	}

	// Insertion order is preserved.
	for i, want := range []string{"m1", "m2", "m3"} {
		if msgs[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, msgs[i].ID, want)
		}
	}

	if err := s.MarkIndexed(ctx, []string{"m1", "m3"}); err != nil {
		t.Fatalf("marking indexed: %v", err)
	}

	msgs, err = s.ListUnindexed(ctx)
	if err != nil {
		t.Fatalf("listing after mark: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m2" {
		t.Fatalf("expected only m2 unindexed, got %+v", msgs)
	}
}

func TestMarkIndexedEmptyIsNoop(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertMessage(ctx, testMessage("m1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.MarkIndexed(ctx, nil); err != nil {
		t.Fatalf("marking with no ids: %v", err)
	}

	msgs, err := s.ListUnindexed(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected message to stay unindexed, got %d unindexed", len(msgs))
	}
}

func TestIndexRunsRecorded(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := model.IndexRun{
			ID:         string(rune('a' + i)),
			StartedAt:  started.Add(time.Duration(i) * time.Hour),
			FinishedAt: started.Add(time.Duration(i)*time.Hour + time.Minute),
			Processed:  i,
			Failed:     0,
		}
		if err := s.RecordIndexRun(ctx, run); err != nil {
			t.Fatalf("recording run %d: %v", i, err)
		}
	}

	runs, err := s.RecentIndexRuns(ctx, 2)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Processed != 2 {
		t.Errorf("expected most recent run first, got processed=%d", runs[0].Processed)
	}
}
