package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/model"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logMode    string
	)

	cmd := &cobra.Command{
		Use:   "maildigest",
		Short: "maildigest - retrieval-augmented daily email reports",
		Long: "maildigest ingests a mailbox into a local store, indexes message " +
			"chunks into a vector database, and produces a daily Markdown report " +
			"by retrieval-augmented generation.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", model.DefaultConfigPath(),
		"path to config file",
	)
	cmd.PersistentFlags().StringVar(
		&logMode, "log", "prod", "log mode (prod or dev)",
	)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFetchCmd(&configPath, &logMode))
	cmd.AddCommand(newIndexCmd(&configPath, &logMode))
	cmd.AddCommand(newReportCmd(&configPath, &logMode))
	cmd.AddCommand(newSendCmd(&configPath, &logMode))
	cmd.AddCommand(newRunCmd(&configPath, &logMode))
	cmd.AddCommand(newScheduleCmd(&configPath, &logMode))
	cmd.AddCommand(newStatusCmd(&configPath, &logMode))
	cmd.AddCommand(newCredentialsCmd())
	cmd.AddCommand(newInitCmd(&configPath))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(),
				"maildigest %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
