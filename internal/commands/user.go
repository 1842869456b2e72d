package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatewaycheck/tokencheck/discord"
)

// errRequestFailed is returned when an accessor yields no record
var errRequestFailed = errors.New("gateway request failed (invalid token, unknown resource or network error)")

// NewUserCommand creates the user command
func NewUserCommand(global *GlobalOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "user <token>",
		Short: "Fetch the user behind a token",
		Example: `  tokencheck user "$TOKEN"
  tokencheck user "$TOKEN" --id 80351110224678912`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			defer rt.close()

			user := rt.api.FetchUser(cmd.Context(), userID, discord.RequestConfig{Token: args[0]})
			if user == nil {
				return errRequestFailed
			}
			return writeJSON(cmd, user)
		},
	}

	cmd.Flags().StringVar(&userID, "id", discord.CurrentUser, "User ID to fetch")
	return cmd
}

// NewBillingCommand creates the billing command
func NewBillingCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "billing <token>",
		Short: "Fetch the billing country of the token's user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			defer rt.close()

			country := rt.api.FetchBillingCountry(cmd.Context(), discord.RequestConfig{Token: args[0]})
			if country == nil {
				return errRequestFailed
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), country.CountryCode)
			return err
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
