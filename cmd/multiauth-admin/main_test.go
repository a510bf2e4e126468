package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/internal/adapters/token"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	fakes "github.com/target/multiauth/internal/mocks/auth"
)

func testContext(t *testing.T, input string) (*commandContext, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &commandContext{
		Ctx:    t.Context(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		In:     strings.NewReader(input),
		Out:    &out,
	}, &out
}

func TestPrintUsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestGenKeys(t *testing.T) {
	for _, alg := range []token.Algorithm{token.RS256, token.ES256} {
		t.Run(string(alg), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "keys")
			cmdCtx, out := testContext(t, "")

			require.NoError(t, runGenKeys(cmdCtx, []string{"-alg", string(alg), "-out", dir}))
			assert.Contains(t, out.String(), "TOKEN_ALG="+string(alg))

			kp, err := token.LoadKeyPair(alg,
				filepath.Join(dir, "token_private.pem"),
				filepath.Join(dir, "token_public.pem"))
			require.NoError(t, err)
			assert.NotEmpty(t, kp.KeyID)

			err = runGenKeys(cmdCtx, []string{"-alg", string(alg), "-out", dir})
			require.ErrorContains(t, err, "already exists")
			require.NoError(t, runGenKeys(cmdCtx, []string{"-alg", string(alg), "-out", dir, "-force"}))
		})
	}
}

func TestParseGenKeysFlags_RejectsHMAC(t *testing.T) {
	_, err := parseGenKeysFlags([]string{"-alg", "HS256"})
	require.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags([]string{"-status"})
	require.NoError(t, err)
	assert.True(t, opts.Status)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"-timeout", "0s"})
	require.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                  false,
		"localhost":         false,
		"127.0.0.1":         false,
		"::1":               false,
		"db.local":          false,
		"10.0.0.5":          true,
		"db.prod.example.a": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestConfirmAction(t *testing.T) {
	prompt := confirmPrompt{warning: "WARNING", target: "database \"x\""}

	cmdCtx, out := testContext(t, "yes\n")
	require.NoError(t, confirmAction(cmdCtx, prompt, "reset database schema"))
	assert.Contains(t, out.String(), "About to reset database schema")

	cmdCtx, _ = testContext(t, "n\n")
	require.Error(t, confirmAction(cmdCtx, prompt, "reset database schema"))

	cmdCtx, out = testContext(t, "")
	prompt.yes = true
	require.NoError(t, confirmAction(cmdCtx, prompt, "reset database schema"))
	assert.Empty(t, out.String())
}

func TestShowAccount(t *testing.T) {
	identity := fakes.NewMemoryIdentity()
	acc := identity.SeedAccount("Ada", "Lovelace", "ada@example.com", "correct-horse")
	identity.SeedWorkspace("analytical-engine", acc.ID, domainauth.MembershipAdmin)

	email, err := domainauth.ParseEmail("ADA@example.com")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, showAccount(t.Context(), &buf, identity, email))
	assert.Contains(t, buf.String(), "Ada Lovelace")
	assert.Contains(t, buf.String(), "analytical-engine")
	assert.Contains(t, buf.String(), "admin")

	missing, err := domainauth.ParseEmail("nobody@example.com")
	require.NoError(t, err)
	require.Error(t, showAccount(t.Context(), &buf, identity, missing))
}

func TestEmailArg(t *testing.T) {
	_, err := emailArg("account-show", nil)
	require.ErrorContains(t, err, "usage")
	_, err = emailArg("account-show", []string{"not-an-email"})
	require.Error(t, err)
}
