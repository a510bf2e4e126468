package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/mocks"
	fakes "github.com/target/multiauth/internal/mocks/auth"
	"github.com/target/multiauth/internal/ports"
	"go.uber.org/mock/gomock"
)

func newIdentityService(t *testing.T) (*mocks.MockAccountStore, *mocks.MockWorkspaceStore, *mocks.MockPasswordHasher, *IdentityService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	accounts := mocks.NewMockAccountStore(ctrl)
	workspaces := mocks.NewMockWorkspaceStore(ctrl)
	hasher := mocks.NewMockPasswordHasher(ctrl)
	svc := NewIdentityService(IdentityServiceOptions{
		Stores: IdentityStores{Accounts: accounts, Workspaces: workspaces, Tx: fakes.PassthroughTx{}},
		Hasher: hasher,
	})
	return accounts, workspaces, hasher, svc
}

func strPtr(s string) *string { return &s }

func TestIdentityService_VerifyCredential(t *testing.T) {
	t.Parallel()
	accounts, _, hasher, svc := newIdentityService(t)
	ctx := context.Background()

	accounts.EXPECT().GetByID(gomock.Any(), gomock.Nil(), "acc-1").
		Return(model.Account{ID: "acc-1", PasswordHash: strPtr("$argon2id$...")}, nil)
	hasher.EXPECT().Verify("secret", "$argon2id$...").Return(true, nil)

	ok, err := svc.VerifyCredential(ctx, "acc-1", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdentityService_VerifyCredential_OAuthAccountHasNoPassword(t *testing.T) {
	t.Parallel()
	accounts, _, hasher, svc := newIdentityService(t)

	accounts.EXPECT().GetByID(gomock.Any(), gomock.Nil(), "acc-2").Return(model.Account{ID: "acc-2"}, nil)
	hasher.EXPECT().Hash(gomock.Any()).Return("decoy", nil)
	hasher.EXPECT().Verify("anything", "decoy").Return(false, nil)

	ok, err := svc.VerifyCredential(context.Background(), "acc-2", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityService_VerifyCredential_UnknownAccountStillHashes(t *testing.T) {
	t.Parallel()
	_, _, hasher, svc := newIdentityService(t)
	ctx := context.Background()

	// decoy is hashed once and reused
	hasher.EXPECT().Hash(gomock.Any()).Return("decoy", nil).Times(1)
	hasher.EXPECT().Verify("guess", "decoy").Return(false, nil).Times(2)

	for range 2 {
		ok, err := svc.VerifyCredential(ctx, "", "guess")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestIdentityService_RegisterEmailAccount(t *testing.T) {
	t.Parallel()
	accounts, _, hasher, svc := newIdentityService(t)
	ctx := context.Background()

	email, err := domainauth.ParseEmail("new@example.com")
	require.NoError(t, err)
	claimed, err := domainauth.ClaimIdentifier(email, false)
	require.NoError(t, err)
	pw, err := domainauth.ParsePassword("long-enough")
	require.NoError(t, err)

	hasher.EXPECT().Hash("long-enough").Return("hashed", nil)
	accounts.EXPECT().IdentifierExists(gomock.Any(), gomock.Any(), model.IdentifierEmail, "new@example.com").Return(false, nil)
	accounts.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), model.Identifier{Type: model.IdentifierEmail, Value: "new@example.com"}).
		DoAndReturn(func(_ context.Context, _ ports.Tx, p model.Profile, _ model.Identifier) (model.Account, error) {
			require.NotNil(t, p.PasswordHash)
			assert.Equal(t, "hashed", *p.PasswordHash)
			assert.Equal(t, "new@example.com", p.Email)
			return model.Account{ID: "acc-9", FirstName: p.FirstName}, nil
		})

	acc, err := svc.RegisterEmailAccount(ctx, ports.RegisterInput{FirstName: "Nia", LastName: "New", Email: claimed, Password: pw})
	require.NoError(t, err)
	assert.Equal(t, "acc-9", acc.ID)
}

func TestIdentityService_RegisterEmailAccount_LostRace(t *testing.T) {
	t.Parallel()
	accounts, _, hasher, svc := newIdentityService(t)

	email, _ := domainauth.ParseEmail("taken@example.com")
	claimed, _ := domainauth.ClaimIdentifier(email, false)
	pw, _ := domainauth.ParsePassword("long-enough")

	hasher.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
	accounts.EXPECT().IdentifierExists(gomock.Any(), gomock.Any(), model.IdentifierEmail, "taken@example.com").Return(true, nil)

	_, err := svc.RegisterEmailAccount(context.Background(), ports.RegisterInput{Email: claimed, Password: pw})
	require.Error(t, err)
	assert.True(t, errs.IsDuplicate(err))
	assert.Equal(t, "email", errs.GetField(err))
}

func TestIdentityService_ResolveOAuth(t *testing.T) {
	t.Parallel()
	identity := domainauth.Identity{Provider: "google", Subject: "g-1", Email: "g@example.com", FirstName: "Gee"}

	t.Run("existing", func(t *testing.T) {
		accounts, _, _, svc := newIdentityService(t)
		accounts.EXPECT().FindByIdentifier(gomock.Any(), gomock.Any(), model.IdentifierOAuthGoogle, "g-1").
			Return(model.Account{ID: "acc-1"}, nil)

		acc, err := svc.ResolveOAuth(context.Background(), identity)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", acc.ID)
	})

	t.Run("created", func(t *testing.T) {
		accounts, _, _, svc := newIdentityService(t)
		accounts.EXPECT().FindByIdentifier(gomock.Any(), gomock.Any(), model.IdentifierOAuthGoogle, "g-1").
			Return(model.Account{}, errs.NotFound("account not found"))
		accounts.EXPECT().Create(gomock.Any(), gomock.Any(),
			model.Profile{FirstName: "Gee", Email: "g@example.com"},
			model.Identifier{Type: model.IdentifierOAuthGoogle, Value: "g-1"},
		).Return(model.Account{ID: "acc-2"}, nil)

		acc, err := svc.ResolveOAuth(context.Background(), identity)
		require.NoError(t, err)
		assert.Equal(t, "acc-2", acc.ID)
	})

	t.Run("concurrent create", func(t *testing.T) {
		accounts, _, _, svc := newIdentityService(t)
		gomock.InOrder(
			accounts.EXPECT().FindByIdentifier(gomock.Any(), gomock.Any(), model.IdentifierOAuthGoogle, "g-1").
				Return(model.Account{}, errs.NotFound("account not found")),
			accounts.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(model.Account{}, errs.Duplicate("value", "This identifier is already registered")),
			accounts.EXPECT().FindByIdentifier(gomock.Any(), gomock.Nil(), model.IdentifierOAuthGoogle, "g-1").
				Return(model.Account{ID: "acc-3"}, nil),
		)

		acc, err := svc.ResolveOAuth(context.Background(), identity)
		require.NoError(t, err)
		assert.Equal(t, "acc-3", acc.ID)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, _, _, svc := newIdentityService(t)
		_, err := svc.ResolveOAuth(context.Background(), domainauth.Identity{Provider: "myspace", Subject: "x"})
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("store failure", func(t *testing.T) {
		accounts, _, _, svc := newIdentityService(t)
		accounts.EXPECT().FindByIdentifier(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Account{}, errors.New("connection reset"))
		_, err := svc.ResolveOAuth(context.Background(), identity)
		require.Error(t, err)
	})
}

func TestIdentityService_CreateWorkspaceAndJoin(t *testing.T) {
	t.Parallel()
	accounts, workspaces, _, svc := newIdentityService(t)
	slug, err := domainauth.ParseSafeSlug("acme")
	require.NoError(t, err)
	owner := "acc-1"

	workspaces.EXPECT().Create(gomock.Any(), gomock.Any(), slug).Return(model.Workspace{ID: "ws-1", Slug: "acme"}, nil)
	workspaces.EXPECT().AttachMembership(gomock.Any(), gomock.Any(), "ws-1", owner, domainauth.MembershipAdmin).
		Return(model.Membership{ID: "m-1", WorkspaceID: "ws-1", AccountID: &owner, Type: domainauth.MembershipAdmin}, nil)
	accounts.EXPECT().UpdatePreferences(gomock.Any(), gomock.Any(), owner, model.Preferences{LastUsedWorkspace: "ws-1"}).Return(nil)

	got, err := svc.CreateWorkspaceAndJoin(context.Background(), slug, owner, domainauth.MembershipAdmin)
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.Membership.ID)
	assert.Equal(t, domainauth.MembershipView{
		ID: "m-1", Type: "admin", Workspace: domainauth.WorkspaceRef{ID: "ws-1", Slug: "acme"},
	}, got.View())
}

func TestIdentityService_CreateWorkspaceAndJoin_DuplicateSlug(t *testing.T) {
	t.Parallel()
	_, workspaces, _, svc := newIdentityService(t)
	slug, _ := domainauth.ParseSafeSlug("acme")

	workspaces.EXPECT().Create(gomock.Any(), gomock.Any(), slug).
		Return(model.Workspace{}, errs.Duplicate("slug", "This name already exists"))

	_, err := svc.CreateWorkspaceAndJoin(context.Background(), slug, "acc-1", domainauth.MembershipAdmin)
	assert.True(t, errs.IsDuplicate(err))
}

func TestIdentityService_Lookups(t *testing.T) {
	t.Parallel()
	accounts, workspaces, _, svc := newIdentityService(t)
	ctx := context.Background()

	workspaces.EXPECT().FindMembership(gomock.Any(), gomock.Nil(), "ws-1", "m-1", "acc-1").Return(model.Workspace{ID: "ws-1"}, nil)
	workspaces.EXPECT().FindBySlugForAccount(gomock.Any(), gomock.Nil(), "acme", "acc-1").
		Return(model.WorkspaceWithMembership{Workspace: model.Workspace{Slug: "acme"}}, nil)
	workspaces.EXPECT().ListForAccount(gomock.Any(), gomock.Nil(), "acc-1").Return(nil, nil)
	accounts.EXPECT().GetAvailableWorkspace(gomock.Any(), gomock.Nil(), "acc-1").
		Return(model.WorkspaceWithMembership{}, errs.NotFound("none"))
	accounts.EXPECT().UpdatePreferences(gomock.Any(), gomock.Nil(), "acc-1", model.Preferences{LastUsedWorkspace: "ws-1"}).Return(nil)

	ws, err := svc.ConfirmMembership(ctx, "acc-1", "m-1", "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "ws-1", ws.ID)

	wm, err := svc.FindMembershipBySlug(ctx, "acc-1", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", wm.Workspace.Slug)

	list, err := svc.ListMemberships(ctx, "acc-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetAvailableWorkspace(ctx, "acc-1")
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, svc.RememberWorkspace(ctx, "acc-1", "ws-1"))
}
