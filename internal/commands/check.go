package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatewaycheck/tokencheck/checker"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// CheckOptions holds options for the check command
type CheckOptions struct {
	Concurrency int
	Billing     bool
	NoBilling   bool
	Output      string
}

// NewCheckCommand creates the check command
func NewCheckCommand(global *GlobalOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check a list of tokens",
		Long: `Reads one token per line from file, or from stdin when file is "-" or omitted,
and reports the valid accounts grouped by user together with the rejected tokens.`,
		Example: `  # Check tokens from a file
  tokencheck check tokens.txt

  # Pipe tokens and get JSON
  cat tokens.txt | tokencheck check -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, global, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Tokens checked at once (default from config)")
	cmd.Flags().BoolVar(&opts.Billing, "billing", false, "Fetch the billing country of valid accounts")
	cmd.Flags().BoolVar(&opts.NoBilling, "no-billing", false, "Skip billing country lookups")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", outputText, "Output format: text or json")

	return cmd
}

func runCheck(cmd *cobra.Command, global *GlobalOptions, opts *CheckOptions, args []string) error {
	if opts.Output != outputText && opts.Output != outputJSON {
		return fmt.Errorf("unknown output format %q", opts.Output)
	}

	tokens, err := readTokenInput(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newSession(cmd, global)
	if err != nil {
		return err
	}
	defer rt.close()

	concurrency := rt.cfg.Checker.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	billing := rt.cfg.Checker.Billing
	if opts.Billing {
		billing = true
	}
	if opts.NoBilling {
		billing = false
	}

	report, err := checker.New(rt.api, rt.log,
		checker.WithConcurrency(concurrency),
		checker.WithBilling(billing),
	).Check(cmd.Context(), tokens)
	if err != nil {
		return err
	}

	if opts.Output == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func readTokenInput(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 0 || args[0] == "-" {
		return checker.ReadTokens(cmd.InOrStdin())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()
	return checker.ReadTokens(f)
}

func printReport(w io.Writer, report *checker.Report) {
	s := report.Summary
	fmt.Fprintf(w, "Checked %d tokens: %d valid, %d invalid\n", s.Total, s.Valid, s.Invalid)
	fmt.Fprintf(w, "Accounts: %d (verified %d, unverified %d, nitro %d)\n", s.Accounts, s.Verified, s.Unverified, s.Nitro)

	for _, acc := range report.Valid {
		flags := ""
		if acc.User.Verified {
			flags += " verified"
		}
		if acc.User.HasNitro() {
			flags += " " + acc.User.PremiumType.String()
		}
		if code := report.Countries[acc.User.ID]; code != "" {
			flags += " " + code
		}
		fmt.Fprintf(w, "\n%s (%s)%s\n", acc.User.Tag(), acc.User.ID, flags)
		for _, token := range acc.Tokens {
			fmt.Fprintf(w, "  %s\n", token)
		}
	}

	if len(report.Invalid) > 0 {
		fmt.Fprintln(w, "\nInvalid:")
		for _, inv := range report.Invalid {
			if inv.User.ID != "" {
				fmt.Fprintf(w, "  %s (user %s)\n", inv.Token, inv.User.ID)
				continue
			}
			fmt.Fprintf(w, "  %s\n", inv.Token)
		}
	}
}
