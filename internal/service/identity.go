package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
)

// IdentityStores groups the persistence collaborators of IdentityService.
type IdentityStores struct {
	Accounts   ports.AccountStore
	Workspaces ports.WorkspaceStore
	Tx         ports.Transactor
}

// IdentityServiceOptions groups dependencies for IdentityService.
type IdentityServiceOptions struct {
	Stores IdentityStores
	Hasher ports.PasswordHasher
	Logger *slog.Logger // Optional
}

// IdentityService answers identity and workspace questions for the session machine.
type IdentityService struct {
	accounts   ports.AccountStore
	workspaces ports.WorkspaceStore
	tx         ports.Transactor
	hasher     ports.PasswordHasher
	logger     *slog.Logger

	decoyOnce sync.Once
	decoy     string
}

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(opts IdentityServiceOptions) *IdentityService {
	if opts.Stores.Accounts == nil || opts.Stores.Workspaces == nil || opts.Stores.Tx == nil {
		panic("identity stores are required")
	}
	if opts.Hasher == nil {
		panic("PasswordHasher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		accounts:   opts.Stores.Accounts,
		workspaces: opts.Stores.Workspaces,
		tx:         opts.Stores.Tx,
		hasher:     opts.Hasher,
		logger:     logger.With("component", "identity"),
	}
}

// FindAccountByIdentifier returns the account owning (t, value).
func (s *IdentityService) FindAccountByIdentifier(
	ctx context.Context,
	t model.IdentifierType,
	value string,
) (model.Account, error) {
	return s.accounts.FindByIdentifier(ctx, nil, t, value)
}

// IdentifierExists reports whether (t, value) is taken.
func (s *IdentityService) IdentifierExists(ctx context.Context, t model.IdentifierType, value string) (bool, error) {
	return s.accounts.IdentifierExists(ctx, nil, t, value)
}

// VerifyCredential checks secret against the stored hash. Accounts created
// through an OAuth provider have no hash and never match.
// An empty accountID, or an account without a password, still pays for one
// comparison against a decoy hash and reports false.
func (s *IdentityService) VerifyCredential(ctx context.Context, accountID, secret string) (bool, error) {
	if accountID == "" {
		s.burnComparison(ctx, secret)
		return false, nil
	}
	acc, err := s.accounts.GetByID(ctx, nil, accountID)
	if err != nil {
		return false, err
	}
	if acc.PasswordHash == nil || *acc.PasswordHash == "" {
		s.burnComparison(ctx, secret)
		return false, nil
	}
	ok, err := s.hasher.Verify(secret, *acc.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return ok, nil
}

const decoySecret = "multiauth-decoy-credential"

func (s *IdentityService) burnComparison(ctx context.Context, secret string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(decoySecret)
		if err != nil {
			s.logger.WarnContext(ctx, "decoy hash unavailable", "error", err)
			return
		}
		s.decoy = hash
	})
	if s.decoy == "" {
		return
	}
	_, _ = s.hasher.Verify(secret, s.decoy)
}

// GetAccount returns the account with accountID.
func (s *IdentityService) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	return s.accounts.GetByID(ctx, nil, accountID)
}

// RegisterEmailAccount creates an account with an e-mail identifier and a hashed password.
func (s *IdentityService) RegisterEmailAccount(ctx context.Context, in ports.RegisterInput) (model.Account, error) {
	email := in.Email.String()
	if email == "" {
		return model.Account{}, errs.ValidationField("email", "cannot be blank")
	}
	hash, err := s.hasher.Hash(in.Password.Reveal())
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}

	var out model.Account
	err = s.tx.WithTx(ctx, nil, func(tx ports.Tx) error {
		// re-checked inside the transaction; the caller's check may be stale
		exists, existsErr := s.accounts.IdentifierExists(ctx, tx, model.IdentifierEmail, email)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return errs.Duplicate("email", "email already exists")
		}
		acc, createErr := s.accounts.Create(ctx, tx,
			model.Profile{FirstName: in.FirstName, LastName: in.LastName, Email: email, PasswordHash: &hash},
			model.Identifier{Type: model.IdentifierEmail, Value: email},
		)
		out = acc
		return createErr
	})
	if err != nil {
		return model.Account{}, err
	}
	s.logger.InfoContext(ctx, "account registered", "account_id", out.ID)
	return out, nil
}

// ResolveOAuth returns the account bound to the provider subject, creating it on first sign-in.
func (s *IdentityService) ResolveOAuth(ctx context.Context, identity domainauth.Identity) (model.Account, error) {
	t, ok := model.OAuthIdentifierType(identity.Provider)
	if !ok {
		return model.Account{}, errs.Validation(fmt.Sprintf("unsupported provider %q", identity.Provider))
	}
	if identity.Subject == "" {
		return model.Account{}, errs.Validation("provider subject is required")
	}

	var out model.Account
	created := false
	err := s.tx.WithTx(ctx, nil, func(tx ports.Tx) error {
		created = false
		acc, findErr := s.accounts.FindByIdentifier(ctx, tx, t, identity.Subject)
		if findErr == nil {
			out = acc
			return nil
		}
		if !errs.IsNotFound(findErr) {
			return findErr
		}
		acc, createErr := s.accounts.Create(ctx, tx,
			model.Profile{FirstName: identity.FirstName, LastName: identity.LastName, Email: identity.Email},
			model.Identifier{Type: t, Value: identity.Subject},
		)
		if createErr != nil {
			return createErr
		}
		out, created = acc, true
		return nil
	})
	if errs.IsDuplicate(err) {
		// a concurrent first sign-in won the insert
		return s.accounts.FindByIdentifier(ctx, nil, t, identity.Subject)
	}
	if err != nil {
		return model.Account{}, err
	}
	if created {
		s.logger.InfoContext(ctx, "account created from provider", "account_id", out.ID, "provider", identity.Provider)
	}
	return out, nil
}

// GetAvailableWorkspace prefers the last used workspace, else any membership.
func (s *IdentityService) GetAvailableWorkspace(
	ctx context.Context,
	accountID string,
) (model.WorkspaceWithMembership, error) {
	return s.accounts.GetAvailableWorkspace(ctx, nil, accountID)
}

// ConfirmMembership checks that (workspace, membership, account) exists as one row.
func (s *IdentityService) ConfirmMembership(
	ctx context.Context,
	accountID, membershipID, workspaceID string,
) (model.Workspace, error) {
	return s.workspaces.FindMembership(ctx, nil, workspaceID, membershipID, accountID)
}

// FindMembershipBySlug returns the account's membership in the workspace named slug.
func (s *IdentityService) FindMembershipBySlug(
	ctx context.Context,
	accountID, slug string,
) (model.WorkspaceWithMembership, error) {
	return s.workspaces.FindBySlugForAccount(ctx, nil, slug, accountID)
}

// CreateWorkspaceAndJoin creates the workspace, attaches accountID and
// records it as the last used workspace, all in one transaction.
func (s *IdentityService) CreateWorkspaceAndJoin(
	ctx context.Context,
	slug domainauth.SafeSlug,
	accountID string,
	t domainauth.MembershipType,
) (model.WorkspaceWithMembership, error) {
	if slug.String() == "" {
		return model.WorkspaceWithMembership{}, errs.ValidationField("slug", "cannot be blank")
	}
	var out model.WorkspaceWithMembership
	err := s.tx.WithTx(ctx, nil, func(tx ports.Tx) error {
		ws, err := s.workspaces.Create(ctx, tx, slug)
		if err != nil {
			return err
		}
		m, err := s.workspaces.AttachMembership(ctx, tx, ws.ID, accountID, t)
		if err != nil {
			return err
		}
		if err := s.accounts.UpdatePreferences(ctx, tx, accountID, model.Preferences{LastUsedWorkspace: ws.ID}); err != nil {
			return err
		}
		out = model.WorkspaceWithMembership{Workspace: ws, Membership: m}
		return nil
	})
	if err != nil {
		return model.WorkspaceWithMembership{}, err
	}
	s.logger.InfoContext(ctx, "workspace created",
		"workspace_id", out.Workspace.ID, "account_id", accountID, "slug", out.Workspace.Slug)
	return out, nil
}

// RememberWorkspace stores workspaceID as the account's last used workspace.
func (s *IdentityService) RememberWorkspace(ctx context.Context, accountID, workspaceID string) error {
	return s.accounts.UpdatePreferences(ctx, nil, accountID, model.Preferences{LastUsedWorkspace: workspaceID})
}

// ListMemberships returns every workspace the account belongs to.
func (s *IdentityService) ListMemberships(
	ctx context.Context,
	accountID string,
) ([]model.WorkspaceWithMembership, error) {
	list, err := s.workspaces.ListForAccount(ctx, nil, accountID)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.ErrorContext(ctx, "list memberships failed", "account_id", accountID, "error", err)
	}
	return list, err
}

var _ ports.IdentityResolver = (*IdentityService)(nil)
