// Package set implements carve config set.
package set

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ValidConfigKeys defines the allowed configuration keys.
var ValidConfigKeys = []string{
	"out",
	"min-size",
	"dedup",
}

// NewSetCmd builds the config set subcommand.
func NewSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a scan default",
		Long:  `Set a scan default that will be persisted in the config file.`,
		Example: heredoc.Doc(`
			# Always write recovered files here unless --out overrides it
			$ carve config set out ./recovered

			# Skip anything smaller than 4 KiB by default
			$ carve config set min-size 4k
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			valid := false
			for _, k := range ValidConfigKeys {
				if key == k {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid config key: %s. Valid keys are: %v", key, ValidConfigKeys)
			}

			viper.Set(key, value)

			if err := viper.WriteConfig(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("set %s = %s\n", key, value)
			return nil
		},
	}

	return cmd
}
