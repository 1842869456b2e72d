package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for the tokencheck tool",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd, version)
		},
	}
}

func printVersion(cmd *cobra.Command, version string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tokencheck version %s\n", version)
	fmt.Fprintf(out, "Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
