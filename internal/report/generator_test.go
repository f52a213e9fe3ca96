package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/rag"
	"github.com/nhle/maildigest/internal/report"
	"github.com/nhle/maildigest/internal/vectorstore/memory"
)

type queryEmbedder struct{}

func (queryEmbedder) Embed(
	_ context.Context, texts []string, _ rag.EmbedIntent,
) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeGenerator struct {
	calls   int
	prompts []string
	systems []string
	err     error
}

func (f *fakeGenerator) Generate(
	_ context.Context, system, prompt string,
) (string, error) {
	f.calls++
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return "generated summary", nil
}

func seededIndex(t *testing.T, docs ...string) *memory.Index {
	t.Helper()
	index := memory.New()

	entries := make([]rag.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = rag.Entry{
			ID:        doc,
			Embedding: []float32{1, 0, 0},
			Document:  doc,
		}
	}
	if err := index.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("seeding index: %v", err)
	}
	return index
}

func sections(titles ...string) []model.SectionSpec {
	specs := make([]model.SectionSpec, len(titles))
	for i, title := range titles {
		specs[i] = model.SectionSpec{
			Title:        title,
			Query:        "query for " + title,
			Instructions: "instructions for " + title,
		}
	}
	return specs
}

func TestGenerateAssemblesSectionsInOrder(t *testing.T) {
	gen := &fakeGenerator{}
	g := report.NewGenerator(
		logger.Noop(), queryEmbedder{},
		seededIndex(t, "chunk one", "chunk two"),
		gen, sections("Alpha", "Beta", "Gamma"), 5,
	)

	rep, err := g.Generate(context.Background(), time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if rep.Date.Format("2006-01-02") != "2026-08-31" {
		t.Errorf("unexpected date: %v", rep.Date)
	}
	if len(rep.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(rep.Sections))
	}
	for i, want := range []string{"Alpha", "Beta", "Gamma"} {
		if rep.Sections[i].Title != want {
			t.Errorf("section %d: got %q, want %q", i, rep.Sections[i].Title, want)
		}
		if rep.Sections[i].Content != "generated summary" {
			t.Errorf("section %d content: %q", i, rep.Sections[i].Content)
		}
	}

	if gen.calls != 3 {
		t.Errorf("expected 3 generation calls, got %d", gen.calls)
	}
	if gen.systems[0] != "instructions for Alpha" {
		t.Errorf("section instructions not passed as system prompt: %q", gen.systems[0])
	}
}

func TestGenerateEmptyRetrievalSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	g := report.NewGenerator(
		logger.Noop(), queryEmbedder{}, memory.New(),
		gen, sections("Alpha"), 5,
	)

	rep, err := g.Generate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if rep.Sections[0].Content != report.FallbackNoInformation {
		t.Errorf("expected no-information fallback, got %q", rep.Sections[0].Content)
	}
	if gen.calls != 0 {
		t.Errorf("generation must not be called for empty retrieval, got %d calls", gen.calls)
	}
}

func TestGenerateFallsBackOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	g := report.NewGenerator(
		logger.Noop(), queryEmbedder{},
		seededIndex(t, "some retrieved chunk"),
		gen, sections("Alpha", "Beta"), 5,
	)

	rep, err := g.Generate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for i, section := range rep.Sections {
		if section.Content != report.FallbackGenerationError {
			t.Errorf("section %d: expected error fallback, got %q", i, section.Content)
		}
	}
}

func TestGeneratePromptContainsContext(t *testing.T) {
	gen := &fakeGenerator{}
	g := report.NewGenerator(
		logger.Noop(), queryEmbedder{},
		seededIndex(t, "first retrieved chunk", "second retrieved chunk"),
		gen, sections("Alpha"), 5,
	)

	if _, err := g.Generate(context.Background(), time.Now()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "first retrieved chunk") ||
		!strings.Contains(prompt, "second retrieved chunk") {
		t.Errorf("prompt missing retrieved chunks:\n%s", prompt)
	}
	if !strings.Contains(prompt, "\n\n---\n\n") {
		t.Errorf("prompt missing chunk separator:\n%s", prompt)
	}
	if !strings.Contains(prompt, "query for Alpha") {
		t.Errorf("prompt missing section query:\n%s", prompt)
	}
}
