package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/rag"
)

// fakeChroma serves the small slice of the Chroma REST API the client uses.
type fakeChroma struct {
	t *testing.T

	createCalls int
	upserts     []map[string]any
	queries     []map[string]any
	count       int
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		f.createCalls++
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decoding create request: %v", err)
		}
		if req["name"] != "emails" {
			f.t.Errorf("unexpected collection name: %v", req["name"])
		}
		meta, _ := req["metadata"].(map[string]any)
		if meta["hnsw:space"] != "cosine" {
			f.t.Errorf("collection not created with cosine distance: %v", meta)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "col-1"})
	})

	mux.HandleFunc("/api/v1/collections/col-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		f.upserts = append(f.upserts, req)
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		f.queries = append(f.queries, req)
		json.NewEncoder(w).Encode(map[string]any{
			"documents": [][]string{{"doc a", "doc b"}},
		})
	})

	mux.HandleFunc("/api/v1/collections/col-1/count", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%d", f.count)
	})

	return mux
}

func newTestIndex(t *testing.T, fake *fakeChroma) *Index {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	return New(logger.Noop(), model.VectorConfig{
		URL:        srv.URL,
		Collection: "emails",
	})
}

func TestUpsertCreatesCollectionOnce(t *testing.T) {
	fake := &fakeChroma{t: t}
	index := newTestIndex(t, fake)
	ctx := context.Background()

	entries := []rag.Entry{
		{
			ID:        "email_m1_chunk_0",
			Embedding: []float32{0.1, 0.2},
			Document:  "Email Subject: s\n\nsome paragraph",
			Metadata:  map[string]string{"message_id": "m1", "subject": "s"},
		},
	}

	if err := index.Upsert(ctx, entries); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := index.Upsert(ctx, entries); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if fake.createCalls != 1 {
		t.Errorf("collection should be resolved once, got %d calls", fake.createCalls)
	}
	if len(fake.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(fake.upserts))
	}

	ids, _ := fake.upserts[0]["ids"].([]any)
	if len(ids) != 1 || ids[0] != "email_m1_chunk_0" {
		t.Errorf("unexpected upserted ids: %v", ids)
	}
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	fake := &fakeChroma{t: t}
	index := newTestIndex(t, fake)

	if err := index.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if fake.createCalls != 0 || len(fake.upserts) != 0 {
		t.Error("empty upsert must not hit the server")
	}
}

func TestQueryUnwrapsDocuments(t *testing.T) {
	fake := &fakeChroma{t: t}
	index := newTestIndex(t, fake)

	docs, err := index.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 || docs[0] != "doc a" {
		t.Errorf("unexpected documents: %v", docs)
	}

	req := fake.queries[0]
	if req["n_results"].(float64) != 5 {
		t.Errorf("unexpected n_results: %v", req["n_results"])
	}
}

func TestCount(t *testing.T) {
	fake := &fakeChroma{t: t, count: 42}
	index := newTestIndex(t, fake)

	count, err := index.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 42 {
		t.Errorf("unexpected count: %d", count)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	))
	t.Cleanup(srv.Close)

	index := New(logger.Noop(), model.VectorConfig{URL: srv.URL})

	err := index.Upsert(context.Background(), []rag.Entry{{ID: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !rag.IsTransient(err) {
		t.Errorf("503 should be transient, got %v", err)
	}
}
