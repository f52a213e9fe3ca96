package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newScheduleCmd(configPath, logMode *string) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, *logMode)
			if err != nil {
				return err
			}
			defer app.log.Sync()

			spec := app.cfg.Schedule.Cron

			c := cron.New()
			_, err = c.AddFunc(spec, func() {
				app.log.Info("scheduled run starting", "cron", spec)
				if err := runPipeline(cmd, app, send); err != nil {
					app.log.Error("scheduled run failed", "error", err)
				}
			})
			if err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", spec, err)
			}

			c.Start()
			fmt.Fprintf(cmd.OutOrStdout(),
				"Scheduler started (cron %q), press Ctrl-C to stop\n", spec)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			ctx := c.Stop()
			<-ctx.Done()
			app.log.Info("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&send, "send", true, "email the report after writing it")
	return cmd
}
