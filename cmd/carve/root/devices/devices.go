// Package devices implements the carve devices command: listing local
// storage devices so a user doesn't have to already know a raw path.
package devices

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shubham/sigcarve/internal/device"
)

// NewDevicesCmd builds the devices subcommand.
func NewDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Short:   "List locally attached storage devices",
		Example: heredoc.Doc(`$ carve devices`),
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := device.List()
			if err != nil {
				return fmt.Errorf("devices: %w", err)
			}
			if len(devs) == 0 {
				fmt.Println("no devices found")
				return nil
			}
			for _, d := range devs {
				fmt.Printf("%-20s %-10s %-8s %s\n", d.Path, d.SizeHuman, d.Filesystem, d.Name)
			}
			return nil
		},
	}
	return cmd
}
