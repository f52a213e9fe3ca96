package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/report"
)

func TestWriterWritesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := report.NewWriter(logger.Noop(), filepath.Join(dir, "reports"))

	rep := &model.Report{
		Date: time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC),
		Sections: []model.Section{
			{Title: "Alpha", Content: "Morning run."},
		},
	}

	path, err := w.Write(rep)
	if err != nil {
		t.Fatalf("writing: %v", err)
	}
	if filepath.Base(path) != "daily_report_2026-08-31.md" {
		t.Errorf("unexpected filename: %q", path)
	}

	// A rerun on the same day replaces the file.
	rep.Sections[0].Content = "Evening rerun."
	if _, err := w.Write(rep); err != nil {
		t.Fatalf("rewriting: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "Evening rerun.") {
		t.Errorf("report not overwritten:\n%s", data)
	}
	if strings.Contains(string(data), "Morning run.") {
		t.Errorf("stale content left behind:\n%s", data)
	}
}
