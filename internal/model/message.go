package model

import "time"

// Message is a single ingested mail item. The provider-assigned ID is the
// dedup key; a message is written once and only its Indexed flag ever changes.
type Message struct {
	// ID is the provider-assigned unique identifier (IMAP UID rendered as
	// a string for Gmail-style opaque ids).
	ID string `json:"id" db:"id"`

	// Sender is the decoded From header (display name or address).
	Sender string `json:"sender" db:"sender"`

	// Subject is the decoded Subject header.
	Subject string `json:"subject" db:"subject"`

	// Body is the best-effort plain-text extraction of the message.
	Body string `json:"body" db:"body"`

	// ReceivedAt is derived from provider metadata (envelope date).
	ReceivedAt time.Time `json:"received_at" db:"received_at"`

	// Indexed is false at creation and flips to true only after all
	// derived chunks are durably present in the vector index.
	Indexed bool `json:"indexed" db:"indexed"`
}

// Chunk is a retrievable unit derived from one message. Its ID is
// deterministic over (message id, ordinal), so re-chunking an unmodified
// message yields identical ids and upserts are idempotent.
type Chunk struct {
	// ID has the form "email_{message.id}_chunk_{ordinal}".
	ID string `json:"id"`

	// Text is the paragraph prefixed with its subject context header.
	Text string `json:"text"`

	// MessageID and Subject are a non-owning back-reference used for
	// citation and debugging.
	MessageID string `json:"message_id"`
	Subject   string `json:"subject"`
}

// IndexRun records the outcome of one indexing pass for observability.
type IndexRun struct {
	ID         string    `json:"id" db:"id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Processed  int       `json:"processed" db:"processed"`
	Failed     int       `json:"failed" db:"failed"`
}
