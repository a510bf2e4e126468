package data

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/internal/data/pgxutil"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/testutil"
)

func createTestAccount(t *testing.T, db *sql.DB, email string) model.Account {
	t.Helper()
	hash := "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5"
	acc, err := NewAccountRepo(db).Create(context.Background(), nil,
		model.Profile{FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: &hash},
		model.Identifier{Type: model.IdentifierEmail, Value: email},
	)
	require.NoError(t, err)
	return acc
}

func TestAccountRepo_CreateAndLookup(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)

		acc := createTestAccount(t, db, "ada@example.com")
		assert.NotEmpty(t, acc.ID)
		assert.Equal(t, "Ada Lovelace", acc.DisplayName())
		require.NotNil(t, acc.PasswordHash)

		got, err := repo.GetByID(ctx, nil, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, got.ID)
		assert.Empty(t, got.Preferences.LastUsedWorkspace)

		byIdent, err := repo.FindByIdentifier(ctx, nil, model.IdentifierEmail, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byIdent.ID)

		exists, err := repo.IdentifierExists(ctx, nil, model.IdentifierEmail, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.IdentifierExists(ctx, nil, model.IdentifierOAuthGoogle, "ada@example.com")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.GetByID(ctx, nil, "missing")
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestAccountRepo_DuplicateIdentifierRollsBack(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)
		createTestAccount(t, db, "dup@example.com")

		_, err := repo.Create(ctx, nil,
			model.Profile{FirstName: "Bob", LastName: "Builder", Email: "dup@example.com"},
			model.Identifier{Type: model.IdentifierEmail, Value: "dup@example.com"},
		)
		require.Error(t, err)
		assert.True(t, errs.IsDuplicate(err))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM accounts WHERE first_name = 'Bob'`).Scan(&count))
		assert.Zero(t, count, "account insert must roll back with the identifier")
	})
}

func TestAccountRepo_AvailableWorkspacePrefersLastUsed(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		accounts := NewAccountRepo(db)
		workspaces := NewWorkspaceRepo(db)
		acc := createTestAccount(t, db, "pref@example.com")

		_, err := accounts.GetAvailableWorkspace(ctx, nil, acc.ID)
		assert.True(t, errs.IsNotFound(err))

		first := createWorkspaceWithMember(t, workspaces, "first", acc.ID)
		second := createWorkspaceWithMember(t, workspaces, "second", acc.ID)

		got, err := accounts.GetAvailableWorkspace(ctx, nil, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.Workspace.ID)

		require.NoError(t, accounts.UpdatePreferences(ctx, nil, acc.ID, model.Preferences{LastUsedWorkspace: second.ID}))
		got, err = accounts.GetAvailableWorkspace(ctx, nil, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.Workspace.ID)
		assert.Equal(t, domainauth.MembershipAdmin, got.Membership.Type)

		err = accounts.UpdatePreferences(ctx, nil, "missing", model.Preferences{})
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestAccountRepo_ReusesCallerTransaction(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)
		txm := pgxutil.NewTxManager(db, nil)
		errAbort := errors.New("abort")

		var created model.Account
		err := txm.WithTx(ctx, nil, func(tx pgx.Tx) error {
			var err error
			created, err = repo.Create(ctx, tx,
				model.Profile{FirstName: "Tx", LastName: "User", Email: "tx@example.com"},
				model.Identifier{Type: model.IdentifierEmail, Value: "tx@example.com"},
			)
			if err != nil {
				return err
			}
			// visible inside the transaction
			if _, err = repo.GetByID(ctx, tx, created.ID); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		_, err = repo.GetByID(ctx, nil, created.ID)
		assert.True(t, errs.IsNotFound(err), "rolled back account must not be visible")
	})
}

func createWorkspaceWithMember(t *testing.T, repo *WorkspaceRepo, slug, accountID string) model.Workspace {
	t.Helper()
	ctx := context.Background()
	s, err := domainauth.ParseSafeSlug(slug)
	require.NoError(t, err)
	ws, err := repo.Create(ctx, nil, s)
	require.NoError(t, err)
	_, err = repo.AttachMembership(ctx, nil, ws.ID, accountID, domainauth.MembershipAdmin)
	require.NoError(t, err)
	return ws
}
