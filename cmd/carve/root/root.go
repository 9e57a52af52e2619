// Package root assembles the carve command tree.
package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shubham/sigcarve/cmd/carve/root/config"
	"github.com/shubham/sigcarve/cmd/carve/root/devices"
	"github.com/shubham/sigcarve/cmd/carve/root/scan"
)

// NewRootCmd builds the carve CLI: scan is the default action, with
// devices and config as supporting subcommands.
func NewRootCmd() *cobra.Command {
	scanCmd := scan.NewScanCmd()

	cmd := &cobra.Command{
		Use:   "carve <command> [flags]",
		Short: "Signature-based file carving",
		Long:  `Recover files from a raw disk image or device by scanning for known file-format signatures.`,
		Example: heredoc.Doc(`
			$ carve scan --source /dev/sdb1 --out ./recovered
			$ carve --source /dev/sdb1 --out ./recovered
			$ carve devices
			$ carve config set min-size 512
		`),
		// Bare `carve --source ... --out ...` runs a scan directly, since
		// scan is the CLI's default action; without --source it behaves
		// like any other command with no RunE and prints help.
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("source") {
				return cmd.Help()
			}
			return scanCmd.RunE(cmd, args)
		},
	}

	// Root carries scan's own flags so `carve --source ...` parses
	// identically to `carve scan --source ...`.
	cmd.Flags().AddFlagSet(scanCmd.Flags())

	cmd.AddCommand(scanCmd)
	cmd.AddCommand(devices.NewDevicesCmd())
	cmd.AddCommand(config.NewConfigCmd())

	return cmd
}
