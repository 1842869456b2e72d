package checker

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaycheck/tokencheck/discord"
	gwhttp "github.com/gatewaycheck/tokencheck/http"
	"github.com/gatewaycheck/tokencheck/logger"
	"github.com/gatewaycheck/tokencheck/testing/fakegateway"
)

func newTestChecker(t *testing.T, gw *fakegateway.Server, opts ...Option) *Checker {
	t.Helper()
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)

	api := discord.New(gwhttp.NewClient(logger.Nop(), srv.URL), logger.Nop())
	return New(api, logger.Nop(), opts...)
}

func TestCheckGroupsAccounts(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))

	alice := gw.AddUser(discord.User{Username: "alice", Verified: true, PremiumType: discord.PremiumNitro})
	bob := gw.AddUser(discord.User{Username: "bob"})
	aliceA, aliceB := fakegateway.NewToken(alice.ID), fakegateway.NewToken(alice.ID)
	bobA := fakegateway.NewToken(bob.ID)
	gw.AddUser(alice, aliceA, aliceB)
	gw.AddUser(bob, bobA)
	gw.SetBillingCountry(alice.ID, "CA")

	revokedID := fakegateway.NewUserID()
	revoked := fakegateway.NewToken(revokedID)

	c := newTestChecker(t, gw, WithBilling(true), WithConcurrency(2))
	report, err := c.Check(context.Background(), []string{aliceA, revoked, bobA, " " + aliceA + " ", "", aliceB, "garbage"})
	require.NoError(t, err)

	require.Len(t, report.Valid, 2)
	assert.Equal(t, alice.ID, report.Valid[0].User.ID)
	assert.Equal(t, []string{aliceA, aliceB}, report.Valid[0].Tokens)
	assert.Equal(t, bob.ID, report.Valid[1].User.ID)
	assert.Equal(t, []string{bobA}, report.Valid[1].Tokens)

	require.Len(t, report.Invalid, 2)
	assert.Equal(t, discord.InvalidAccount{User: discord.User{ID: revokedID}, Token: revoked}, report.Invalid[0])
	assert.Equal(t, discord.InvalidAccount{Token: "garbage"}, report.Invalid[1])

	assert.Equal(t, Summary{
		Total:      5,
		Valid:      3,
		Invalid:    2,
		Accounts:   2,
		Verified:   1,
		Unverified: 1,
		Nitro:      1,
	}, report.Summary)

	assert.Equal(t, map[string]string{alice.ID: "CA", bob.ID: fakegateway.DefaultCountryCode}, report.Countries)
	assert.Len(t, report.Verified(), 1)
	assert.Len(t, report.Unverified(), 1)
	assert.Equal(t, alice.ID, report.Nitro()[0].User.ID)
}

func TestCheckWithoutBilling(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))
	user := gw.AddUser(discord.User{Username: "solo"})
	token := fakegateway.NewToken(user.ID)
	gw.AddUser(user, token)

	report, err := newTestChecker(t, gw).Check(context.Background(), []string{token})
	require.NoError(t, err)
	assert.Nil(t, report.Countries)

	for _, r := range gw.Requests() {
		assert.NotContains(t, r.Path, "billing")
	}
}

func TestCheckSurvivesRateLimiting(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(50, 1))
	user := gw.AddUser(discord.User{Username: "busy", Verified: true})
	token := fakegateway.NewToken(user.ID)
	gw.AddUser(user, token)

	// billing right after the user lookup exhausts the one-token bucket
	report, err := newTestChecker(t, gw, WithBilling(true)).Check(context.Background(), []string{token})
	require.NoError(t, err)
	require.Len(t, report.Valid, 1)
	assert.Equal(t, fakegateway.DefaultCountryCode, report.Countries[user.ID])

	limited := 0
	for _, r := range gw.Requests() {
		if r.Status == 429 {
			limited++
		}
	}
	assert.Positive(t, limited)
}

func TestCheckEmptyInput(t *testing.T) {
	gw := fakegateway.New(logger.Nop())
	report, err := newTestChecker(t, gw).Check(context.Background(), []string{"", "  "})
	require.NoError(t, err)

	assert.Empty(t, report.Valid)
	assert.Empty(t, report.Invalid)
	assert.Equal(t, Summary{}, report.Summary)
	assert.Empty(t, gw.Requests())
}

func TestCheckCancelled(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestChecker(t, gw).Check(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestCheckLogsSummaryWithoutTokens(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false, nil)
	api := discord.New(gwhttp.NewClient(log, srv.URL), log)

	const secret = "not-a-real-token.value.sig"
	_, err := New(api, log).Check(context.Background(), []string{secret})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "token check finished")
	assert.Contains(t, out, `"gateway_requests":1`)
	assert.NotContains(t, out, secret)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedupe([]string{"a", " b", "a", "", "c\n", "b"}))
	assert.Empty(t, Dedupe(nil))
}

func TestOptions(t *testing.T) {
	c := New(nil, nil, WithConcurrency(0))
	assert.Equal(t, DefaultConcurrency, c.concurrency)
	assert.False(t, c.billing)

	c = New(nil, nil, WithConcurrency(3), WithBilling(true))
	assert.Equal(t, 3, c.concurrency)
	assert.True(t, c.billing)
}

func TestReadTokens(t *testing.T) {
	input := strings.Join([]string{
		"# exported tokens",
		"token-one",
		"",
		"  token-two  ",
		"user@example.com:hunter2:token-three",
		"trailing:",
	}, "\n")

	tokens, err := ReadTokens(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"token-one", "token-two", "token-three"}, tokens)
}

func TestReadTokensLineTooLong(t *testing.T) {
	_, err := ReadTokens(strings.NewReader(strings.Repeat("x", maxTokenLineBytes+1)))
	assert.Error(t, err)
}
