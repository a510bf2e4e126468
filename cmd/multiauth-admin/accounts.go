package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	redisadapter "github.com/target/multiauth/internal/adapters/redis"
	"github.com/target/multiauth/internal/bootstrap"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	"github.com/target/multiauth/internal/ports"
)

const accountCommandTimeout = 30 * time.Second

func runAccountShow(cmdCtx *commandContext, args []string) error {
	email, err := emailArg("account-show", args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, accountCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		return showAccount(ctx, cmdCtx.Out, newIdentityService(cmdCtx, db), email)
	})
}

func showAccount(ctx context.Context, w io.Writer, identity ports.IdentityResolver, email domainauth.EmailAddress) error {
	acc, err := identity.FindAccountByIdentifier(ctx, model.IdentifierEmail, email.String())
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	memberships, err := identity.ListMemberships(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}

	if err := writef(w, "Account %s\n  Name:  %s %s\n  Email: %s\n  Password sign-in: %t\n",
		acc.ID, acc.FirstName, acc.LastName, acc.PrimaryEmail, acc.PasswordHash != nil); err != nil {
		return err
	}
	if len(memberships) == 0 {
		return writeln(w, "\nNo workspace memberships")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "\nWORKSPACE\tSLUG\tMEMBERSHIP\tTYPE\tLAST USED\n"); err != nil {
		return err
	}
	for _, m := range memberships {
		last := ""
		if m.Workspace.ID == acc.Preferences.LastUsedWorkspace {
			last = "*"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Workspace.ID, m.Workspace.Slug, m.Membership.ID, m.Membership.Type, last); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runThrottleReset(cmdCtx *commandContext, args []string) error {
	email, err := emailArg("throttle-reset", args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, accountCommandTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return errors.New("redis is not configured; nothing to reset")
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	throttle := redisadapter.NewLoginThrottle(client, redisadapter.ThrottleOptions{
		MaxFailures: cmdCtx.Config.Auth.Throttle.MaxFailures,
		Window:      cmdCtx.Config.Auth.Throttle.Window,
	})
	if err := throttle.Reset(ctx, email.String()); err != nil {
		return err
	}
	cmdCtx.Logger.Info("login throttle reset", "email", email.String())
	return nil
}

func emailArg(cmd string, args []string) (domainauth.EmailAddress, error) {
	if len(args) != 1 {
		return domainauth.EmailAddress{}, fmt.Errorf("usage: multiauth-admin %s <email>", cmd)
	}
	return domainauth.ParseEmail(args[0])
}
