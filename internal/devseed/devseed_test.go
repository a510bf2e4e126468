package devseed

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/internal/domain/model"
	fakes "github.com/target/multiauth/internal/mocks/auth"
)

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRun_SeedsDefaults(t *testing.T) {
	identity := fakes.NewMemoryIdentity()

	require.NoError(t, Run(t.Context(), identity, quietOptions()))
	assert.Equal(t, len(DefaultAccounts()), identity.AccountCount())

	grace, err := identity.FindAccountByIdentifier(t.Context(), model.IdentifierEmail, "grace@example.com")
	require.NoError(t, err)
	memberships, err := identity.ListMemberships(t.Context(), grace.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)

	ok, err := identity.VerifyCredential(t.Context(), grace.ID, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_Idempotent(t *testing.T) {
	identity := fakes.NewMemoryIdentity()

	require.NoError(t, Run(t.Context(), identity, quietOptions()))
	require.NoError(t, Run(t.Context(), identity, quietOptions()))
	assert.Equal(t, len(DefaultAccounts()), identity.AccountCount())
}

func TestRun_ReportsInvalidSeeds(t *testing.T) {
	identity := fakes.NewMemoryIdentity()
	opts := quietOptions()
	opts.Accounts = []AccountSeed{
		{FirstName: "Bad", LastName: "Email", Email: "not-an-email"},
		{FirstName: "Ok", LastName: "Account", Email: "ok@example.com", Workspaces: []string{"No Spaces!"}},
	}

	err := Run(t.Context(), identity, opts)
	require.ErrorContains(t, err, "2 seed errors")
	assert.Equal(t, 1, identity.AccountCount())
}

func TestRun_RejectsShortPassword(t *testing.T) {
	opts := quietOptions()
	opts.Password = "short"
	require.Error(t, Run(t.Context(), fakes.NewMemoryIdentity(), opts))
}
