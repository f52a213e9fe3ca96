package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/chunker"
	"github.com/nhle/maildigest/internal/genai"
	"github.com/nhle/maildigest/internal/indexer"
	"github.com/nhle/maildigest/internal/vectorstore/chroma"
)

func newIndexCmd(configPath, logMode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Embed unindexed messages into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			key, err := app.genaiKey()
			if err != nil {
				return err
			}

			client, err := genai.New(app.log, app.cfg.GenAI, key)
			if err != nil {
				return err
			}

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			index := chroma.New(app.log, app.cfg.Vector)
			ch := chunker.New(app.cfg.Indexer.MinChunkLen)
			pause := time.Duration(app.cfg.Indexer.PauseMillis) * time.Millisecond

			stats, err := indexer.New(
				app.log, st, ch, client, index, pause,
			).Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Indexed %d messages (%d failed)\n",
				stats.Processed, stats.Failed,
			)
			return nil
		},
	}
}
