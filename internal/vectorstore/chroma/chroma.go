package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/rag"
)

// Index is a minimal REST client to a Chroma server, implementing
// rag.VectorIndex. The collection is created with cosine distance if it
// does not exist; the same metric therefore applies to every upsert and
// query against it.
type Index struct {
	log        *logger.Logger
	url        string
	collection string
	client     *http.Client

	// collectionID is resolved lazily on first use via get-or-create.
	collectionID string
}

// New creates a Chroma index client from the given configuration.
func New(log *logger.Logger, cfg model.VectorConfig) *Index {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "emails"
	}

	return &Index{
		log:        log.With("client", "chroma"),
		url:        strings.TrimRight(cfg.URL, "/"),
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// ensureCollection resolves the collection id, creating the collection with
// cosine distance if missing. Chroma returns the existing collection when
// get_or_create is set.
func (x *Index) ensureCollection(ctx context.Context) error {
	if x.collectionID != "" {
		return nil
	}

	req := map[string]any{
		"name":          x.collection,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
		"get_or_create": true,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := x.postJSON(ctx, x.url+"/api/v1/collections", req, &resp); err != nil {
		return fmt.Errorf("ensuring collection %q: %w", x.collection, err)
	}
	if resp.ID == "" {
		return fmt.Errorf("chroma returned empty collection id for %q", x.collection)
	}

	x.collectionID = resp.ID
	return nil
}

// Upsert stores the entries keyed by their chunk ids. Re-upserting an
// existing id replaces its vector, document, and metadata.
func (x *Index) Upsert(ctx context.Context, entries []rag.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := x.ensureCollection(ctx); err != nil {
		return err
	}

	ids := make([]string, len(entries))
	embeddings := make([][]float32, len(entries))
	documents := make([]string, len(entries))
	metadatas := make([]map[string]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		embeddings[i] = e.Embedding
		documents[i] = e.Document
		metadatas[i] = e.Metadata
	}

	req := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/upsert", x.url, x.collectionID)
	return x.postJSON(ctx, url, req, nil)
}

// Query returns up to k documents ranked by ascending cosine distance to
// the given embedding.
func (x *Index) Query(
	ctx context.Context,
	embedding []float32,
	k int,
) ([]string, error) {
	if k <= 0 {
		k = 5
	}
	if err := x.ensureCollection(ctx); err != nil {
		return nil, err
	}

	req := map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"documents"},
	}

	// Chroma nests results per query embedding; we send exactly one.
	var resp struct {
		Documents [][]string `json:"documents"`
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/query", x.url, x.collectionID)
	if err := x.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Documents) == 0 {
		return nil, nil
	}
	return resp.Documents[0], nil
}

// Count reports the number of stored entries.
func (x *Index) Count(ctx context.Context) (int, error) {
	if err := x.ensureCollection(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/count", x.url, x.collectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, &rag.TransientError{Op: "chroma count", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading count response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chroma count failed (%d): %s", resp.StatusCode, string(raw))
	}

	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return count, nil
}

// postJSON issues one JSON POST and optionally decodes the response body.
// Transport errors, 429s, and 5xx responses are transient; other failures
// are permanent.
func (x *Index) postJSON(
	ctx context.Context,
	url string,
	body, out any,
) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return &rag.TransientError{Op: "chroma POST " + url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &rag.TransientError{
			Op:  "chroma POST " + url,
			Err: fmt.Errorf("reading response: %w", err),
		}
	}

	if resp.StatusCode >= 300 {
		apiErr := fmt.Errorf(
			"chroma POST %s failed (%d): %s",
			url, resp.StatusCode, truncate(string(raw), 300),
		)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &rag.TransientError{Op: "chroma POST " + url, Err: apiErr}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
