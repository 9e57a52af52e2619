// Package config implements the carve config command group.
package config

import (
	"github.com/spf13/cobra"

	"github.com/shubham/sigcarve/cmd/carve/root/config/get"
	"github.com/shubham/sigcarve/cmd/carve/root/config/set"
)

// NewConfigCmd builds the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage persisted scan defaults",
		Long:  `Commands for managing the carve CLI configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(set.NewSetCmd())
	cmd.AddCommand(get.NewGetCmd())

	return cmd
}
