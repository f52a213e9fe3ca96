package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/chunker"
	"github.com/nhle/maildigest/internal/genai"
	"github.com/nhle/maildigest/internal/indexer"
	"github.com/nhle/maildigest/internal/ingest"
	"github.com/nhle/maildigest/internal/mail"
	"github.com/nhle/maildigest/internal/vectorstore/chroma"
)

func newRunCmd(configPath, logMode *string) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: fetch, index, and report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			return runPipeline(cmd, app, send)
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "email the report after writing it")
	return cmd
}

// runPipeline executes fetch, index, and report in sequence. Credentials
// and mailbox connectivity are validated up front so a misconfigured run
// fails before any work happens.
func runPipeline(cmd *cobra.Command, app *app, send bool) error {
	if err := app.validateMail(); err != nil {
		return err
	}

	password, err := app.mailPassword()
	if err != nil {
		return err
	}
	key, err := app.genaiKey()
	if err != nil {
		return err
	}

	client := mail.NewClient(app.log, app.cfg.Mail, password)
	if err := client.Validate(cmd.Context()); err != nil {
		return err
	}

	genaiClient, err := genai.New(app.log, app.cfg.GenAI, key)
	if err != nil {
		return err
	}

	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	fetchStats, err := ingest.New(app.log, client, st).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Fetched %d messages (%d new)\n", fetchStats.Fetched, fetchStats.Inserted)

	index := chroma.New(app.log, app.cfg.Vector)
	ch := chunker.New(app.cfg.Indexer.MinChunkLen)
	pause := time.Duration(app.cfg.Indexer.PauseMillis) * time.Millisecond

	indexStats, err := indexer.New(
		app.log, st, ch, genaiClient, index, pause,
	).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Indexed %d messages (%d failed)\n", indexStats.Processed, indexStats.Failed)

	path, err := generateReport(cmd, app, send)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)

	return nil
}
