package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaycheck/tokencheck/checker"
	"github.com/gatewaycheck/tokencheck/discord"
	"github.com/gatewaycheck/tokencheck/logger"
	"github.com/gatewaycheck/tokencheck/testing/fakegateway"
)

type testGateway struct {
	gw    *fakegateway.Server
	url   string
	alice discord.User
	token string
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))
	alice := gw.AddUser(discord.User{Username: "alice", Discriminator: "0", Verified: true, PremiumType: discord.PremiumNitro})
	token := fakegateway.NewToken(alice.ID)
	gw.AddUser(alice, token)
	gw.SetBillingCountry(alice.ID, "DE")

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return &testGateway{gw: gw, url: srv.URL, alice: alice, token: token}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("v1.2.3")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))

	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error"}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommandJSON(t *testing.T) {
	tg := newTestGateway(t)
	revoked := fakegateway.NewToken(fakegateway.NewUserID())
	stdin := strings.Join([]string{"# tokens", tg.token, revoked, "user@example.com:pw:" + tg.token}, "\n")

	out, err := execute(t, stdin, "--gateway-url", tg.url, "check", "-o", "json", "--billing")
	require.NoError(t, err)

	var report checker.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Valid, 1)
	assert.Equal(t, tg.alice.ID, report.Valid[0].User.ID)
	assert.Equal(t, []string{tg.token}, report.Valid[0].Tokens)
	require.Len(t, report.Invalid, 1)
	assert.Equal(t, revoked, report.Invalid[0].Token)
	assert.Equal(t, "DE", report.Countries[tg.alice.ID])
	assert.Equal(t, 2, report.Summary.Total)
}

func TestCheckCommandTextFromFile(t *testing.T) {
	tg := newTestGateway(t)
	path := filepath.Join(t.TempDir(), "tokens.txt")
	require.NoError(t, os.WriteFile(path, []byte(tg.token+"\nnot-a-token\n"), 0o600))

	out, err := execute(t, "", "--gateway-url", tg.url, "check", path, "--concurrency", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Checked 2 tokens: 1 valid, 1 invalid")
	assert.Contains(t, out, "alice ("+tg.alice.ID+") verified nitro")
	assert.Contains(t, out, "  "+tg.token)
	assert.Contains(t, out, "Invalid:\n  not-a-token")
}

func TestCheckCommandErrors(t *testing.T) {
	tg := newTestGateway(t)

	_, err := execute(t, "", "--gateway-url", tg.url, "check", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "", "--gateway-url", tg.url, "check", filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "failed to open token file")

	_, err = execute(t, "", "--gateway-url", "not a url", "check")
	assert.Error(t, err)
}

func TestUserCommand(t *testing.T) {
	tg := newTestGateway(t)

	out, err := execute(t, "", "--gateway-url", tg.url, "user", tg.token)
	require.NoError(t, err)

	var user discord.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, tg.alice.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	out, err = execute(t, "", "--gateway-url", tg.url, "user", tg.token, "--id", tg.alice.ID)
	require.NoError(t, err)
	assert.Contains(t, out, tg.alice.ID)

	_, err = execute(t, "", "--gateway-url", tg.url, "user", "bogus")
	assert.ErrorIs(t, err, errRequestFailed)
}

func TestBillingCommand(t *testing.T) {
	tg := newTestGateway(t)

	out, err := execute(t, "", "--gateway-url", tg.url, "billing", tg.token)
	require.NoError(t, err)
	assert.Equal(t, "DE\n", out)

	_, err = execute(t, "", "--gateway-url", tg.url, "billing", "bogus")
	assert.ErrorIs(t, err, errRequestFailed)
}

func TestSeedDemoUsers(t *testing.T) {
	gw := fakegateway.New(logger.Nop(), fakegateway.WithRateLimit(0, 0))
	cmd := NewFakeGatewayCommand(&GlobalOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)

	seedDemoUsers(cmd, gw, 2, 3)

	tokens := strings.Fields(out.String())
	require.Len(t, tokens, 6)
	for _, token := range tokens {
		_, ok := discord.UserIDFromToken(token)
		assert.True(t, ok, token)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)

	assert.Contains(t, out, "tokencheck version v1.2.3")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand("dev")
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"check", "user", "billing", "fake-gateway", "version"} {
		assert.Contains(t, names, want)
	}
	assert.Equal(t, "dev", root.Version)
}
