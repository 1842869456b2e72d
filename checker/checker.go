// Package checker validates many tokens concurrently and groups the working ones
// by the account they belong to.
package checker

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gatewaycheck/tokencheck/discord"
	"github.com/gatewaycheck/tokencheck/logger"
	tokentrace "github.com/gatewaycheck/tokencheck/trace"
)

// DefaultConcurrency is the number of tokens checked at once
const DefaultConcurrency = 10

// Option configures a Checker
type Option func(*Checker)

// WithConcurrency bounds the number of tokens checked at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBilling enables fetching the billing country of every valid account
func WithBilling(enabled bool) Option {
	return func(c *Checker) {
		c.billing = enabled
	}
}

// Checker runs token checks against the gateway
type Checker struct {
	api         *discord.API
	logger      logger.Logger
	concurrency int
	billing     bool
	sfg         singleflight.Group
}

// New creates a Checker
func New(api *discord.API, log logger.Logger, opts ...Option) *Checker {
	if log == nil {
		log = logger.Nop()
	}
	c := &Checker{
		api:         api,
		logger:      log,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// result is the outcome of one token
type result struct {
	token   string
	user    *discord.User
	country string
}

// Check validates tokens and returns the grouped report. Duplicate and blank tokens
// are checked once. It only fails when ctx is cancelled.
func (c *Checker) Check(ctx context.Context, tokens []string) (*Report, error) {
	ctx, traceID := tokentrace.Ensure(ctx)
	ctx = logger.WithGatewayCounter(ctx)
	start := time.Now()

	unique := Dedupe(tokens)
	results := make([]result, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, token := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.checkToken(gctx, token)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Warn().
			Err(err).
			Str("trace_id", traceID).
			Int("tokens", len(unique)).
			Msg("token check aborted")
		return nil, err
	}

	report := buildReport(results)
	report.Duration = time.Since(start)

	c.logger.Info().
		Str("trace_id", traceID).
		Int("total", report.Summary.Total).
		Int("valid", report.Summary.Valid).
		Int("invalid", report.Summary.Invalid).
		Int("accounts", report.Summary.Accounts).
		Int("nitro", report.Summary.Nitro).
		Int64("gateway_requests", logger.GetGatewayCounter(ctx)).
		Dur("gateway_wait", time.Duration(logger.GetGatewayWait(ctx))).
		Dur("elapsed", report.Duration).
		Msg("token check finished")

	return report, nil
}

func (c *Checker) checkToken(ctx context.Context, token string) result {
	res := result{token: token}

	user := c.api.FetchUser(ctx, discord.CurrentUser, discord.RequestConfig{Token: token})
	if user == nil {
		c.logger.Debug().Str("token", token).Msg("token rejected")
		return res
	}
	res.user = user

	if c.billing {
		res.country = c.billingCountry(ctx, user.ID, token)
	}
	return res
}

// billingCountry fetches the country once per user even when several of its tokens run at once
func (c *Checker) billingCountry(ctx context.Context, userID, token string) string {
	v, _, _ := c.sfg.Do(userID, func() (any, error) {
		country := c.api.FetchBillingCountry(ctx, discord.RequestConfig{Token: token})
		if country == nil {
			return "", nil
		}
		return country.CountryCode, nil
	})
	code, _ := v.(string)
	return code
}

// Dedupe trims tokens and drops blanks and repeats, keeping first-seen order.
func Dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

