// Package get implements carve config get.
package get

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewGetCmd builds the config get subcommand.
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a persisted scan default",
		Example: heredoc.Doc(`
			$ carve config get min-size
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !viper.IsSet(key) {
				return fmt.Errorf("config key %q is not set", key)
			}
			fmt.Println(viper.GetString(key))
			return nil
		},
	}
	return cmd
}
