package main

import (
	"fmt"

	"github.com/nhle/maildigest/internal/credential"
	"github.com/nhle/maildigest/internal/logger"
	"github.com/nhle/maildigest/internal/model"
	"github.com/nhle/maildigest/internal/store"
)

// app bundles the configuration and logger shared by every command.
type app struct {
	cfg *model.AppConfig
	log *logger.Logger
}

// loadApp reads the config file and builds the logger. Commands that talk
// to the mailbox or the models validate further via the helpers below.
func loadApp(configPath, logMode string) (*app, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logMode)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log}, nil
}

// openStore opens the SQLite message store, running migrations if needed.
func (a *app) openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(a.cfg.Store.Path)
}

// mailPassword resolves the mailbox password. Missing credentials are a
// fatal startup condition for mail commands.
func (a *app) mailPassword() (string, error) {
	password, err := credential.Get(credential.KeyMailPassword)
	if err != nil {
		return "", fmt.Errorf(
			"mail password not available (run 'maildigest credentials set %s'): %w",
			credential.KeyMailPassword, err,
		)
	}
	return password, nil
}

// genaiKey resolves the generative AI API key.
func (a *app) genaiKey() (string, error) {
	key, err := credential.Get(credential.KeyGenAIAPIKey)
	if err != nil {
		return "", fmt.Errorf(
			"API key not available (run 'maildigest credentials set %s'): %w",
			credential.KeyGenAIAPIKey, err,
		)
	}
	return key, nil
}

// validateMail checks the mail settings shared by fetch, send, and run.
func (a *app) validateMail() error {
	if a.cfg.Mail.IMAPHost == "" {
		return fmt.Errorf("mail.imap_host is required")
	}
	if a.cfg.Mail.Username == "" {
		return fmt.Errorf("mail.username is required")
	}
	return nil
}
