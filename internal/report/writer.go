package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
)

// Writer persists reports to the local filesystem. Same-day reruns
// overwrite the previous file, so the latest run wins.
type Writer struct {
	log    *logger.Logger
	outDir string
}

// NewWriter creates a report writer rooted at outDir.
func NewWriter(log *logger.Logger, outDir string) *Writer {
	return &Writer{
		log:    log.With("component", "report-writer"),
		outDir: outDir,
	}
}

// Write renders the report to Markdown and writes it to the output
// directory, creating the directory if needed. It returns the path of the
// written file.
func (w *Writer) Write(report *model.Report) (string, error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(w.outDir, report.Filename())
	if err := os.WriteFile(path, []byte(report.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	w.log.Info("report written", "path", path)
	return path, nil
}
