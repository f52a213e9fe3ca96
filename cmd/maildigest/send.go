package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/mail"
)

func newSendCmd(configPath, logMode *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email an already generated report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			if err := app.validateMail(); err != nil {
				return err
			}

			day := time.Now()
			if date != "" {
				day, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
				}
			}

			filename := "daily_report_" + day.Format("2006-01-02") + ".md"
			path := filepath.Join(app.cfg.Report.OutputDir, filename)
			markdown, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf(
					"reading report %s (generate it with 'maildigest report' first): %w",
					path, err,
				)
			}

			password, err := app.mailPassword()
			if err != nil {
				return err
			}

			sink := mail.NewSink(app.log, app.cfg.Mail, password)
			receipt, err := sink.Send(cmd.Context(), day, string(markdown))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Report emailed to %s (receipt %s)\n",
				app.cfg.Mail.Recipient(), receipt,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date to send (YYYY-MM-DD, default today)")
	return cmd
}
