package model

import "time"

// SectionSpec is one (query, instructions) pair the reporter runs. Sections
// are generated and assembled in input order, never reordered by relevance.
type SectionSpec struct {
	// Title heads the section in the assembled report.
	Title string `mapstructure:"title" yaml:"title"`

	// Query is the retrieval question embedded against the vector index.
	Query string `mapstructure:"query" yaml:"query"`

	// Instructions is the persona/formatting system prompt for generation.
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
}

// Section is one generated unit of the final report.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Report is the ordered sequence of generated sections for one run,
// immutable once assembled.
type Report struct {
	Date     time.Time `json:"date"`
	Sections []Section `json:"sections"`
}

// Markdown renders the report in its on-disk/email form: a dated title
// followed by the sections in input order.
func (r *Report) Markdown() string {
	out := "# Daily Email Report: " + r.Date.Format("2006-01-02") + "\n\n"
	for i, s := range r.Sections {
		if i > 0 {
			out += "\n"
		}
		out += "## " + s.Title + "\n\n" + s.Content + "\n"
	}
	return out
}

// Filename returns the report artifact name for the run's date. One artifact
// per calendar day; a second run on the same day overwrites it.
func (r *Report) Filename() string {
	return "daily_report_" + r.Date.Format("2006-01-02") + ".md"
}
