package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbshape/database"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for dbshape",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dbshape version %s\n", version)
			fmt.Fprintf(out, "Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "Supported vendors: %v\n", database.SupportedVendors())
		},
	}

	return cmd
}
