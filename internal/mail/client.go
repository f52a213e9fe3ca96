package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
)

// AuthError indicates that authentication has failed for the mailbox.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mail auth error: %s", e.Message)
}

// Client wraps go-imap v2 for fetching messages from the mailbox. Each
// operation opens its own connection; re-fetching the same UID is
// idempotent.
type Client struct {
	log      *logger.Logger
	host     string
	port     string
	username string
	password string
	tls      bool
	lookback time.Duration
}

// NewClient creates a mail client for the configured mailbox.
func NewClient(log *logger.Logger, cfg model.MailConfig, password string) *Client {
	lookbackDays := cfg.LookbackDays
	if lookbackDays <= 0 {
		lookbackDays = 1
	}

	return &Client{
		log:      log.With("client", "imap"),
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		username: cfg.Username,
		password: password,
		tls:      cfg.UseTLS,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

// connect establishes a connection to the IMAP server and authenticates.
// The caller is responsible for calling Logout on the returned client.
func (c *Client) connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Message: fmt.Sprintf(
				"authentication failed for %s: %v", c.username, err,
			),
		}
	}

	return client, nil
}

// Validate verifies credentials by connecting, authenticating, and
// selecting INBOX. It is called once at startup; failure is fatal.
func (c *Client) Validate(ctx context.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	return nil
}

// ListNewMessageIDs returns the UIDs of messages received within the
// lookback window, as strings. The store deduplicates, so an id appearing
// in consecutive runs is harmless.
func (c *Client) ListNewMessageIDs(ctx context.Context) ([]string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		Since: time.Now().Add(-c.lookback),
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}

	return ids, nil
}

// Fetch retrieves one message by id and extracts its plain-text body.
func (c *Client) Fetch(ctx context.Context, id string) (*model.Message, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msgData := fetchCmd.Next()
	if msgData == nil {
		return nil, fmt.Errorf("message UID %s not found", id)
	}

	buf, err := msgData.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	msg := &model.Message{ID: id}

	if buf.Envelope != nil {
		msg.Subject = buf.Envelope.Subject
		msg.ReceivedAt = buf.Envelope.Date
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				msg.Sender = from.Name
			} else {
				msg.Sender = from.Addr()
			}
		}
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		msg.Body = ExtractPlainText(raw)
	}

	if err := fetchCmd.Close(); err != nil {
		return msg, fmt.Errorf("closing fetch: %w", err)
	}

	return msg, nil
}

// ExtractPlainText pulls the best-effort plain-text body out of a raw RFC
// 5322 message. The first inline text/plain part wins; disposition-marked
// attachments are never used. A multipart message without a suitable part
// yields an empty body, which downstream treats as zero chunks rather than
// an error. Line endings are normalized to LF so paragraph breaks in the
// wire format ("\r\n\r\n") survive as blank lines.
func ExtractPlainText(raw []byte) string {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not parseable as MIME; treat the payload as plain text.
		return normalizeNewlines(strings.TrimSpace(string(raw)))
	}
	defer mr.Close()

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}

		body, readErr := io.ReadAll(p.Body)
		if readErr != nil {
			continue
		}
		return normalizeNewlines(string(body))
	}

	return ""
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// parseUID converts a string message id to a uint32 UID.
func parseUID(id string) (uint32, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid message UID %q: %w", id, err)
	}
	return uint32(uid), nil
}
