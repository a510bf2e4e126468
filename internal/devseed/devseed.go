// Package devseed populates a development database with demo accounts and workspaces.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
)

// DefaultPassword is the sign-in secret of every seeded account.
const DefaultPassword = "multiauth-dev"

// AccountSeed describes one demo account and the workspaces it administers.
type AccountSeed struct {
	FirstName  string
	LastName   string
	Email      string
	Workspaces []string
}

// DefaultAccounts returns the demo data. The third account has no workspace
// so the join flow can be exercised.
func DefaultAccounts() []AccountSeed {
	return []AccountSeed{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Workspaces: []string{"analytical-engine"}},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Workspaces: []string{"compilers", "cobol"}},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
	}
}

// Options tunes a seeding run.
type Options struct {
	Accounts []AccountSeed // defaults to DefaultAccounts()
	Password string        // defaults to DefaultPassword
	Logger   *slog.Logger
}

// Run creates every missing account and workspace. Existing rows are left
// alone, so the command can be re-run safely.
func Run(ctx context.Context, identity ports.IdentityResolver, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seeds := opts.Accounts
	if seeds == nil {
		seeds = DefaultAccounts()
	}
	secret := opts.Password
	if secret == "" {
		secret = DefaultPassword
	}
	password, err := domainauth.ParsePassword(secret)
	if err != nil {
		return fmt.Errorf("seed password: %w", err)
	}

	failures := 0
	for _, seed := range seeds {
		acc, err := ensureAccount(ctx, identity, seed, password)
		if err != nil {
			failures++
			logger.ErrorContext(ctx, "seed account failed", "email", seed.Email, "error", err)
			continue
		}
		logger.InfoContext(ctx, "seeded account", "email", seed.Email, "account_id", acc.ID)
		failures += seedWorkspaces(ctx, identity, acc.ID, seed.Workspaces, logger)
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func ensureAccount(
	ctx context.Context,
	identity ports.IdentityResolver,
	seed AccountSeed,
	password domainauth.ValidPassword,
) (model.Account, error) {
	email, err := domainauth.ParseEmail(seed.Email)
	if err != nil {
		return model.Account{}, err
	}
	acc, err := identity.FindAccountByIdentifier(ctx, model.IdentifierEmail, email.String())
	if err == nil {
		return acc, nil
	}
	if !errs.IsNotFound(err) {
		return model.Account{}, err
	}
	claimed, err := domainauth.ClaimIdentifier(email, false)
	if err != nil {
		return model.Account{}, err
	}
	return identity.RegisterEmailAccount(ctx, ports.RegisterInput{
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Email:     claimed,
		Password:  password,
	})
}

func seedWorkspaces(
	ctx context.Context,
	identity ports.IdentityResolver,
	accountID string,
	slugs []string,
	logger *slog.Logger,
) int {
	failures := 0
	for _, raw := range slugs {
		slug, err := domainauth.ParseSafeSlug(raw)
		if err != nil {
			failures++
			logger.ErrorContext(ctx, "invalid seed slug", "slug", raw, "error", err)
			continue
		}
		if _, err := identity.FindMembershipBySlug(ctx, accountID, slug.String()); err == nil {
			continue
		}
		_, err = identity.CreateWorkspaceAndJoin(ctx, slug, accountID, domainauth.MembershipAdmin)
		switch {
		case err == nil:
			logger.InfoContext(ctx, "seeded workspace", "slug", slug.String(), "account_id", accountID)
		case errs.IsDuplicate(err):
			logger.WarnContext(ctx, "workspace slug owned by another account", "slug", slug.String())
		default:
			failures++
			logger.ErrorContext(ctx, "seed workspace failed", "slug", slug.String(), "error", err)
		}
	}
	return failures
}
