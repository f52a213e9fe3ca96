package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/genai"
	"github.com/nhle/maildigest/internal/mail"
	"github.com/nhle/maildigest/internal/report"
	"github.com/nhle/maildigest/internal/vectorstore/chroma"
)

func newReportCmd(configPath, logMode *string) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate today's report from the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			path, err := generateReport(cmd, app, send)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "email the report after writing it")
	return cmd
}

// generateReport runs retrieval and generation for every section, writes
// the Markdown file, and optionally emails it. It returns the written path.
func generateReport(cmd *cobra.Command, app *app, send bool) (string, error) {
	key, err := app.genaiKey()
	if err != nil {
		return "", err
	}

	client, err := genai.New(app.log, app.cfg.GenAI, key)
	if err != nil {
		return "", err
	}

	index := chroma.New(app.log, app.cfg.Vector)

	gen := report.NewGenerator(
		app.log, client, index, client,
		app.cfg.Report.Sections, app.cfg.Report.TopK,
	)

	rep, err := gen.Generate(cmd.Context(), time.Now())
	if err != nil {
		return "", err
	}

	path, err := report.NewWriter(app.log, app.cfg.Report.OutputDir).Write(rep)
	if err != nil {
		return "", err
	}

	if send {
		if err := app.validateMail(); err != nil {
			return "", err
		}
		password, err := app.mailPassword()
		if err != nil {
			return "", err
		}

		sink := mail.NewSink(app.log, app.cfg.Mail, password)
		receipt, err := sink.Send(cmd.Context(), rep.Date, rep.Markdown())
		if err != nil {
			return "", fmt.Errorf("sending report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"Report emailed to %s (receipt %s)\n",
			app.cfg.Mail.Recipient(), receipt,
		)
	}

	return path, nil
}
