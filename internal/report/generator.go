package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/rag"
)

// DefaultTopK is the number of chunks retrieved per section.
const DefaultTopK = 5

// Fallback strings used when a section cannot be produced normally. They
// appear verbatim in the report so the reader can tell an empty mailbox
// from a generation failure.
const (
	FallbackNoInformation   = "No relevant information found in today's emails."
	FallbackGenerationError = "Error generating this section."
)

const contextSeparator = "\n\n---\n\n"

// Generator produces the daily report by retrieving relevant chunks per
// section and asking the generation model to summarize them.
type Generator struct {
	log       *logger.Logger
	embedder  rag.Embedder
	index     rag.VectorIndex
	generator rag.Generator
	sections  []model.SectionSpec
	topK      int
}

// NewGenerator creates a report generator. A non-positive topK falls back
// to DefaultTopK, and empty sections fall back to the default layout.
func NewGenerator(
	log *logger.Logger,
	embedder rag.Embedder,
	index rag.VectorIndex,
	generator rag.Generator,
	sections []model.SectionSpec,
	topK int,
) *Generator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(sections) == 0 {
		sections = model.DefaultSections()
	}

	return &Generator{
		log:       log.With("component", "report"),
		embedder:  embedder,
		index:     index,
		generator: generator,
		sections:  sections,
		topK:      topK,
	}
}

// Generate builds the report for the given date. Sections appear in
// configuration order; a section that fails degrades to a fallback string
// instead of aborting the report.
func (g *Generator) Generate(ctx context.Context, date time.Time) (*model.Report, error) {
	report := &model.Report{
		Date:     date,
		Sections: make([]model.Section, 0, len(g.sections)),
	}

	for _, spec := range g.sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content := g.generateSection(ctx, spec)
		report.Sections = append(report.Sections, model.Section{
			Title:   spec.Title,
			Content: content,
		})
	}

	return report, nil
}

// generateSection retrieves context for one section and summarizes it.
func (g *Generator) generateSection(ctx context.Context, spec model.SectionSpec) string {
	chunks, err := g.retrieve(ctx, spec.Query)
	if err != nil {
		g.log.Error("retrieval failed",
			"section", spec.Title,
			"error", err,
		)
		return FallbackGenerationError
	}

	if len(chunks) == 0 {
		g.log.Info("no chunks retrieved", "section", spec.Title)
		return FallbackNoInformation
	}

	prompt := buildPrompt(spec.Query, chunks)

	answer, err := g.generator.Generate(ctx, spec.Instructions, prompt)
	if err != nil {
		g.log.Error("generation failed",
			"section", spec.Title,
			"error", err,
		)
		return FallbackGenerationError
	}

	return answer
}

// retrieve embeds the section query and returns the top-k chunk documents.
func (g *Generator) retrieve(ctx context.Context, query string) ([]string, error) {
	embeddings, err := g.embedder.Embed(
		ctx, []string{query}, rag.IntentQuery,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf(
			"expected 1 query embedding, got %d", len(embeddings),
		)
	}

	chunks, err := g.index.Query(ctx, embeddings[0], g.topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	return chunks, nil
}

// buildPrompt assembles the retrieved chunks and the section query into a
// single generation prompt.
func buildPrompt(query string, chunks []string) string {
	var b strings.Builder
	b.WriteString("Context from today's emails:\n\n")
	b.WriteString(strings.Join(chunks, contextSeparator))
	b.WriteString("\n\n")
	b.WriteString(
		"Based *only* on the context provided above, answer the following query:\n",
	)
	b.WriteString(query)
	return b.String()
}
