package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
)

// Sink delivers finished reports to the configured recipient over SMTP.
type Sink struct {
	log      *logger.Logger
	host     string
	port     string
	username string
	password string
	tls      bool
	to       string
}

// NewSink creates an SMTP report sink.
func NewSink(log *logger.Logger, cfg model.MailConfig, password string) *Sink {
	return &Sink{
		log:      log.With("client", "smtp"),
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: password,
		tls:      cfg.UseTLS,
		to:       cfg.Recipient(),
	}
}

// Send emails the rendered report for the given date to the recipient with
// the subject "Your Daily Email Report - YYYY-MM-DD" and returns a delivery
// receipt id.
func (s *Sink) Send(
	_ context.Context, date time.Time, markdown string,
) (string, error) {
	subject := "Your Daily Email Report - " + date.Format("2006-01-02")

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.username))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", s.to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(markdown)

	addr := s.host + ":" + s.port

	var err error
	if s.tls {
		err = s.sendWithTLS(addr, msg.String())
	} else {
		err = s.sendWithStartTLS(addr, msg.String())
	}
	if err != nil {
		return "", err
	}

	receipt := uuid.NewString()
	s.log.Info("report sent",
		"to", s.to,
		"subject", subject,
		"receipt", receipt,
	)
	return receipt, nil
}

// sendWithTLS sends an email over an implicit TLS connection.
func (s *Sink) sendWithTLS(addr, body string) error {
	tlsConfig := &tls.Config{ServerName: s.host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return s.sendViaClient(client, body)
}

// sendWithStartTLS sends an email using STARTTLS.
func (s *Sink) sendWithStartTLS(addr, body string) error {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return s.sendViaClient(client, body)
}

// sendViaClient sends a message using an already-authenticated SMTP client.
func (s *Sink) sendViaClient(client *smtp.Client, body string) error {
	if err := client.Mail(s.username); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}

	if err := client.Rcpt(s.to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}

	if _, err := writer.Write([]byte(body)); err != nil {
		writer.Close()
		return fmt.Errorf("writing SMTP body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing SMTP body: %w", err)
	}

	return client.Quit()
}
