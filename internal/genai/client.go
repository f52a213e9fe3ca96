package genai

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

const apiPathPrefix = "/v1beta/models/"

// Client talks to the Gemini REST API for both embeddings and text
// generation. It implements rag.Embedder and rag.Generator.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	embedModel string
	genModel   string
	client     *http.Client
}

// New creates a Gemini client from the given configuration. The API key is
// required; a missing key is a startup precondition failure, not something
// to retry.
func New(log *logger.Logger, cfg model.GenAIConfig, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}

	genModel := cfg.GenerationModel
	if genModel == "" {
		genModel = "gemini-2.5-flash"
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		log:        log.With("client", "gemini"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		embedModel: embedModel,
		genModel:   genModel,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Embed returns one embedding vector per input text, in input order. The
// intent selects the embedding space: document intent at index time, query
// intent at retrieval time. A response whose count does not match the input
// count is a hard error, since positional alignment is the only association
// between chunk and vector.
func (c *Client) Embed(
	ctx context.Context,
	texts []string,
	intent rag.EmbedIntent,
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := batchEmbedRequest{
		Requests: make([]embedRequest, len(texts)),
	}
	for i, text := range texts {
		reqBody.Requests[i] = embedRequest{
			Model:    "models/" + c.embedModel,
			Content:  content{Parts: []part{{Text: text}}},
			TaskType: string(intent),
		}
	}

	var resp batchEmbedResponse
	path := apiPathPrefix + c.embedModel + ":batchEmbedContents"
	if err := c.post(ctx, path, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf(
			"embedding count mismatch: sent %d texts, got %d vectors",
			len(texts), len(resp.Embeddings),
		)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
		vectors[i] = e.Values
	}

	return vectors, nil
}

// Generate produces text for the given system instructions and user prompt.
func (c *Client) Generate(
	ctx context.Context,
	system, prompt string,
) (string, error) {
	reqBody := generateRequest{
		Contents: []roleContent{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	var resp generateResponse
	path := apiPathPrefix + c.genModel + ":generateContent"
	if err := c.post(ctx, path, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("generation returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}

// post issues one JSON request and decodes the response. Rate limits, 5xx
// responses, and transport errors are wrapped as transient so callers can
// leave the work item for the next run; other API errors are permanent.
func (c *Client) post(
	ctx context.Context,
	path string,
	body, out any,
) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &rag.TransientError{Op: "gemini " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &rag.TransientError{
			Op:  "gemini " + path,
			Err: fmt.Errorf("reading response: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf(
			"API error (%d): %s", resp.StatusCode, truncate(string(respBody), 300),
		)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &rag.TransientError{Op: "gemini " + path, Err: apiErr}
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// --- Gemini API types ---

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type roleContent struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

type generateRequest struct {
	SystemInstruction *content      `json:"systemInstruction,omitempty"`
	Contents          []roleContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
