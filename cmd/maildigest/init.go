package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/model"
)

func newInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}

			cfg, err := model.LoadConfig(path)
			if err != nil {
				return err
			}

			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}
}
