package model

import (
	"strings"
	"testing"
	"time"
)

func TestReportMarkdown(t *testing.T) {
	r := &Report{
		Date: time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC),
		Sections: []Section{
			{Title: "Alpha", Content: "First summary."},
			{Title: "Beta", Content: "Second summary."},
		},
	}

	md := r.Markdown()

	if !strings.HasPrefix(md, "# Daily Email Report: 2026-08-31\n") {
		t.Errorf("missing report title:\n%s", md)
	}

	alpha := strings.Index(md, "## Alpha")
	beta := strings.Index(md, "## Beta")
	if alpha < 0 || beta < 0 {
		t.Fatalf("missing section headings:\n%s", md)
	}
	if alpha > beta {
		t.Error("sections rendered out of order")
	}

	if !strings.Contains(md, "First summary.") || !strings.Contains(md, "Second summary.") {
		t.Errorf("missing section content:\n%s", md)
	}
}

func TestReportFilename(t *testing.T) {
	r := &Report{Date: time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)}
	if got := r.Filename(); got != "daily_report_2026-08-31.md" {
		t.Errorf("unexpected filename: %q", got)
	}
}
