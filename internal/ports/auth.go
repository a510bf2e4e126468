package ports

// Package ports defines interfaces (hexagonal ports) for session and identity behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
)

// TokenCodec signs and verifies bearer tokens binding an actor to an expiry and issuer.
type TokenCodec interface {
	Issue(actor domainauth.Actor) (domainauth.SignedCredential, error)
	// Verify returns the embedded actor or a single uniform invalid-token error.
	Verify(token domainauth.SignedCredential) (domainauth.Actor, error)
}

// PasswordHasher hashes and checks account secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

// OAuthProvider runs the authorization-code + PKCE exchange against one identity provider.
type OAuthProvider interface {
	Name() string
	// AuthCodeURL returns the provider URL carrying state and the S256 challenge of verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange trades code for tokens using verifier and maps the result to an identity.
	Exchange(ctx context.Context, code, verifier string) (domainauth.Identity, error)
}

// ErrUnknownProvider is returned for a provider name that is not configured.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// ProviderRegistry looks up configured OAuth providers by name.
type ProviderRegistry interface {
	Provider(ctx context.Context, name string) (OAuthProvider, error)
	Names() []string
}

// LoginThrottle limits repeated failed sign-ins for one identifier.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RegisterInput carries validated sign-up data.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     domainauth.NonExistingIdentifier
	Password  domainauth.ValidPassword
}

// IdentityResolver is the identity and workspace collaborator the session machine consults.
// Lookups that find nothing return an errors.NotFound AppError.
type IdentityResolver interface {
	FindAccountByIdentifier(ctx context.Context, t model.IdentifierType, value string) (model.Account, error)
	IdentifierExists(ctx context.Context, t model.IdentifierType, value string) (bool, error)
	// VerifyCredential with an empty accountID does the work of a failed
	// comparison and reports false.
	VerifyCredential(ctx context.Context, accountID, secret string) (bool, error)
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	RegisterEmailAccount(ctx context.Context, in RegisterInput) (model.Account, error)
	// ResolveOAuth finds the account bound to the provider subject or creates one.
	ResolveOAuth(ctx context.Context, identity domainauth.Identity) (model.Account, error)
	// GetAvailableWorkspace prefers the last used workspace, else any membership.
	GetAvailableWorkspace(ctx context.Context, accountID string) (model.WorkspaceWithMembership, error)
	// ConfirmMembership checks that (workspace, membership, account) is one row.
	ConfirmMembership(ctx context.Context, accountID, membershipID, workspaceID string) (model.Workspace, error)
	FindMembershipBySlug(ctx context.Context, accountID, slug string) (model.WorkspaceWithMembership, error)
	// CreateWorkspaceAndJoin creates the workspace and attaches accountID in one transaction.
	CreateWorkspaceAndJoin(
		ctx context.Context,
		slug domainauth.SafeSlug,
		accountID string,
		t domainauth.MembershipType,
	) (model.WorkspaceWithMembership, error)
	RememberWorkspace(ctx context.Context, accountID, workspaceID string) error
	ListMemberships(ctx context.Context, accountID string) ([]model.WorkspaceWithMembership, error)
}

// Tx is an open store transaction. Store methods accept a nil Tx and then run on their own.
type Tx = pgx.Tx

// Transactor runs fn inside a serializable transaction, reusing tx when the caller already has one.
type Transactor interface {
	WithTx(ctx context.Context, tx Tx, fn func(tx Tx) error) error
}

// AccountStore persists accounts and their identifiers.
type AccountStore interface {
	GetByID(ctx context.Context, tx Tx, id string) (model.Account, error)
	FindByIdentifier(ctx context.Context, tx Tx, t model.IdentifierType, value string) (model.Account, error)
	IdentifierExists(ctx context.Context, tx Tx, t model.IdentifierType, value string) (bool, error)
	// Create inserts the account and its identifier.
	Create(ctx context.Context, tx Tx, profile model.Profile, identifier model.Identifier) (model.Account, error)
	UpdatePreferences(ctx context.Context, tx Tx, accountID string, prefs model.Preferences) error
	GetAvailableWorkspace(ctx context.Context, tx Tx, accountID string) (model.WorkspaceWithMembership, error)
}

// WorkspaceStore persists workspaces and memberships.
type WorkspaceStore interface {
	Create(ctx context.Context, tx Tx, slug domainauth.SafeSlug) (model.Workspace, error)
	AttachMembership(
		ctx context.Context,
		tx Tx,
		workspaceID, accountID string,
		t domainauth.MembershipType,
	) (model.Membership, error)
	FindMembership(ctx context.Context, tx Tx, workspaceID, membershipID, accountID string) (model.Workspace, error)
	FindBySlugForAccount(ctx context.Context, tx Tx, slug, accountID string) (model.WorkspaceWithMembership, error)
	ListForAccount(ctx context.Context, tx Tx, accountID string) ([]model.WorkspaceWithMembership, error)
}
