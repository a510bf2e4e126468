package data

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/multiauth/internal/data/pgxutil"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	"github.com/target/multiauth/internal/ports"
)

const accountColumns = `a.id, a.first_name, a.last_name, a.primary_email, a.password, a.preferences, a.created_at, a.updated_at`

// workspaceMembershipColumns matches scanWorkspaceWithMembership.
const workspaceMembershipColumns = `w.id, w.slug, w.created_at, m.id, m.workspace_id, m.account_id, m.type::text, m.created_at`

// AccountRepo provides database operations for accounts and identifiers.
type AccountRepo struct {
	DB    *sql.DB
	now   func() time.Time
	newID func() string
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *sql.DB, opts ...RepoOption) *AccountRepo {
	o := applyRepoOptions(opts)
	return &AccountRepo{DB: db, now: o.now, newID: o.newID}
}

// GetByID retrieves an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, tx pgx.Tx, id string) (model.Account, error) {
	if id == "" {
		return model.Account{}, ErrAccountIDRequired
	}
	var out model.Account
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1`, id)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
		return err
	})
	return out, dbErr("get account", err)
}

// FindByIdentifier retrieves the account owning (t, value).
func (r *AccountRepo) FindByIdentifier(
	ctx context.Context,
	tx pgx.Tx,
	t model.IdentifierType,
	value string,
) (model.Account, error) {
	if !t.Valid() {
		return model.Account{}, ErrInvalidIdentifier
	}
	var out model.Account
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		rows, err := q.Query(ctx, `
			SELECT `+accountColumns+`
			FROM accounts a
			JOIN identifiers i ON i.account_id = a.id
			WHERE i.type = $1::identifier_type AND i.value = $2`,
			string(t), value,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
		return err
	})
	return out, dbErr("find account by identifier", err)
}

// IdentifierExists reports whether (t, value) is already registered.
func (r *AccountRepo) IdentifierExists(ctx context.Context, tx pgx.Tx, t model.IdentifierType, value string) (bool, error) {
	if !t.Valid() {
		return false, ErrInvalidIdentifier
	}
	var exists bool
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		return q.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM identifiers WHERE type = $1::identifier_type AND value = $2)`,
			string(t), value,
		).Scan(&exists)
	})
	return exists, dbErr("check identifier", err)
}

// Create inserts the account and its identifier in one transaction.
func (r *AccountRepo) Create(
	ctx context.Context,
	tx pgx.Tx,
	profile model.Profile,
	identifier model.Identifier,
) (model.Account, error) {
	if !identifier.Type.Valid() || identifier.Value == "" {
		return model.Account{}, ErrInvalidIdentifier
	}
	now := r.now().UTC()
	var out model.Account
	err := inTx(ctx, r.DB, tx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO accounts AS a (id, first_name, last_name, primary_email, password, preferences, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, '{}'::jsonb, $6, $6)
			RETURNING `+accountColumns,
			r.newID(),
			strings.TrimSpace(profile.FirstName),
			strings.TrimSpace(profile.LastName),
			profile.Email,
			profile.PasswordHash,
			now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO identifiers (type, value, account_id, created_at, updated_at)
			VALUES ($1::identifier_type, $2, $3, $4, $4)`,
			string(identifier.Type), identifier.Value, out.ID, now,
		)
		return err
	})
	if err != nil {
		return model.Account{}, dbErr("create account", err)
	}
	return out, nil
}

// UpdatePreferences merges prefs into the stored preferences document.
func (r *AccountRepo) UpdatePreferences(ctx context.Context, tx pgx.Tx, accountID string, prefs model.Preferences) error {
	if accountID == "" {
		return ErrAccountIDRequired
	}
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		tag, err := q.Exec(ctx, `
			UPDATE accounts
			SET preferences = preferences || $2::jsonb, updated_at = $3
			WHERE id = $1`,
			accountID, prefs, r.now().UTC(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	return dbErr("update preferences", err)
}

// GetAvailableWorkspace returns the last used workspace when the account is
// still a member of it, otherwise its oldest membership.
func (r *AccountRepo) GetAvailableWorkspace(
	ctx context.Context,
	tx pgx.Tx,
	accountID string,
) (model.WorkspaceWithMembership, error) {
	if accountID == "" {
		return model.WorkspaceWithMembership{}, ErrAccountIDRequired
	}
	var out model.WorkspaceWithMembership
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		row := q.QueryRow(ctx, `
			SELECT `+workspaceMembershipColumns+`
			FROM memberships m
			JOIN workspaces w ON w.id = m.workspace_id
			JOIN accounts a ON a.id = m.account_id
			WHERE m.account_id = $1
			ORDER BY (w.id = a.preferences->>'lastUsedWorkspace') DESC NULLS LAST, m.created_at, m.id
			LIMIT 1`,
			accountID,
		)
		var err error
		out, err = scanWorkspaceWithMembership(row)
		return err
	})
	return out, dbErr("get available workspace", err)
}

func scanWorkspaceWithMembership(row pgx.Row) (model.WorkspaceWithMembership, error) {
	var out model.WorkspaceWithMembership
	var memberType string
	err := row.Scan(
		&out.Workspace.ID,
		&out.Workspace.Slug,
		&out.Workspace.CreatedAt,
		&out.Membership.ID,
		&out.Membership.WorkspaceID,
		&out.Membership.AccountID,
		&memberType,
		&out.Membership.CreatedAt,
	)
	out.Membership.Type = domainauth.MembershipType(memberType)
	return out, err
}

var _ ports.AccountStore = (*AccountRepo)(nil)
