package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/ingest"
	"github.com/nhle/maildigest/internal/mail"
)

func newFetchCmd(configPath, logMode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch new messages from the mailbox into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			if err := app.validateMail(); err != nil {
				return err
			}

			password, err := app.mailPassword()
			if err != nil {
				return err
			}

			client := mail.NewClient(app.log, app.cfg.Mail, password)
			if err := client.Validate(cmd.Context()); err != nil {
				return err
			}

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := ingest.New(app.log, client, st).Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Fetched %d messages (%d new, %d already stored, %d failed)\n",
				stats.Fetched, stats.Inserted, stats.Duplicates, stats.Failed,
			)
			return nil
		},
	}
}
