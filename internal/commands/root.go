package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the tokencheck command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "tokencheck",
		Short: "Check gateway tokens and the accounts behind them",
		Long: `tokencheck validates tokens against a rate-limited user gateway.

Rate-limited requests are retried after the wait the gateway asks for, so large
token lists finish without manual throttling.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.register(root)

	root.AddCommand(
		NewCheckCommand(opts),
		NewUserCommand(opts),
		NewBillingCommand(opts),
		NewFakeGatewayCommand(opts),
		NewVersionCommand(version),
	)
	return root
}
