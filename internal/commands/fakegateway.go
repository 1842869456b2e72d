package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatewaycheck/tokencheck/discord"
	"github.com/gatewaycheck/tokencheck/testing/fakegateway"
)

// FakeGatewayOptions holds options for the fake-gateway command
type FakeGatewayOptions struct {
	Address string
	Users   int
	Tokens  int
}

// NewFakeGatewayCommand creates the fake-gateway command
func NewFakeGatewayCommand(global *GlobalOptions) *cobra.Command {
	opts := &FakeGatewayOptions{}

	cmd := &cobra.Command{
		Use:   "fake-gateway",
		Short: "Run a local rate-limited gateway for development",
		Long: `Serves /users/@me, /users/{id} and /users/@me/billing/country-code with
demo users, rate-limiting each token and answering 429 with a retry_after body.
The demo tokens are printed on startup.`,
		Example: `  tokencheck fake-gateway --users 3
  tokencheck check tokens.txt --gateway-url http://127.0.0.1:8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFakeGateway(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "addr", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&opts.Users, "users", 3, "Demo users to create")
	cmd.Flags().IntVar(&opts.Tokens, "tokens", 2, "Tokens per demo user")
	return cmd
}

func runFakeGateway(cmd *cobra.Command, global *GlobalOptions, opts *FakeGatewayOptions) error {
	rt, err := newSession(cmd, global)
	if err != nil {
		return err
	}
	defer rt.close()

	fg := rt.cfg.FakeGateway
	addr := opts.Address
	if addr == "" {
		addr = fg.Address()
	}

	gw := fakegateway.New(rt.log,
		fakegateway.WithRateLimit(fg.Rate, fg.Burst),
		fakegateway.WithTracerProvider(rt.obs.TracerProvider()),
	)
	seedDemoUsers(cmd, gw, opts.Users, opts.Tokens)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- gw.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Info().Msg("Shutting down fake gateway")
	return gw.Shutdown(context.WithoutCancel(ctx))
}

func seedDemoUsers(cmd *cobra.Command, gw *fakegateway.Server, users, tokensPerUser int) {
	out := cmd.OutOrStdout()
	for i := range users {
		user := gw.AddUser(discord.User{
			Username:      fmt.Sprintf("demo%d", i+1),
			Discriminator: "0",
			Verified:      i%2 == 0,
			PremiumType:   discord.PremiumType(i % 4),
			Email:         fmt.Sprintf("demo%d@example.com", i+1),
		})
		for range tokensPerUser {
			token := fakegateway.NewToken(user.ID)
			gw.AddUser(user, token)
			fmt.Fprintln(out, token)
		}
	}
}
