package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/vectorstore/chroma"
)

func newStatusCmd(configPath, logMode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store and index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()

			total, err := st.CountMessages(cmd.Context())
			if err != nil {
				return err
			}
			unindexed, err := st.ListUnindexed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Messages stored:   %d\n", total)
			fmt.Fprintf(out, "Awaiting indexing: %d\n", len(unindexed))

			index := chroma.New(app.log, app.cfg.Vector)
			if count, err := index.Count(cmd.Context()); err != nil {
				fmt.Fprintf(out, "Vector index:      unavailable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Vector index:      %d chunks\n", count)
			}

			runs, err := st.RecentIndexRuns(cmd.Context(), 5)
			if err != nil {
				return err
			}
			if len(runs) > 0 {
				fmt.Fprintln(out, "\nRecent indexing runs:")
				for _, run := range runs {
					fmt.Fprintf(out, "  %s  processed=%d failed=%d (%s)\n",
						run.FinishedAt.Format("2006-01-02 15:04:05"),
						run.Processed, run.Failed,
						run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
					)
				}
			}

			return nil
		},
	}
}
