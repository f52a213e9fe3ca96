package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/maildigest/internal/credential"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage secrets in the system keyring",
	}

	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsDeleteCmd())
	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret, reading the value from stdin",
		Long: fmt.Sprintf(
			"Stores a secret in the system keyring. Known keys: %s, %s.",
			credential.KeyMailPassword, credential.KeyGenAIAPIKey,
		),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Value: ")

			reader := bufio.NewReader(cmd.InOrStdin())
			value, err := reader.ReadString('\n')
			if err != nil && value == "" {
				return fmt.Errorf("reading value: %w", err)
			}
			value = strings.TrimRight(value, "\r\n")
			if value == "" {
				return fmt.Errorf("value must not be empty")
			}

			if err := credential.Set(args[0], value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %q\n", args[0])
			return nil
		},
	}
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
			return nil
		},
	}
}
