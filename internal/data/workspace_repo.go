package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/multiauth/internal/data/pgxutil"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	"github.com/target/multiauth/internal/ports"
)

// WorkspaceRepo provides database operations for workspaces and memberships.
type WorkspaceRepo struct {
	DB    *sql.DB
	now   func() time.Time
	newID func() string
}

// NewWorkspaceRepo creates a new WorkspaceRepo.
func NewWorkspaceRepo(db *sql.DB, opts ...RepoOption) *WorkspaceRepo {
	o := applyRepoOptions(opts)
	return &WorkspaceRepo{DB: db, now: o.now, newID: o.newID}
}

// Create inserts a workspace. A taken slug maps to a DuplicateResource error on field "slug".
func (r *WorkspaceRepo) Create(ctx context.Context, tx pgx.Tx, slug domainauth.SafeSlug) (model.Workspace, error) {
	var out model.Workspace
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		rows, err := q.Query(ctx, `
			INSERT INTO workspaces (id, slug, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			RETURNING id, slug, created_at`,
			r.newID(), slug.String(), r.now().UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Workspace])
		return err
	})
	return out, dbErr("create workspace", err)
}

// AttachMembership adds a membership of type t for accountID to the workspace.
func (r *WorkspaceRepo) AttachMembership(
	ctx context.Context,
	tx pgx.Tx,
	workspaceID, accountID string,
	t domainauth.MembershipType,
) (model.Membership, error) {
	if workspaceID == "" {
		return model.Membership{}, ErrWorkspaceIDRequired
	}
	if !t.Valid() {
		t = domainauth.MembershipRegular
	}
	var acc *string
	if accountID != "" {
		acc = &accountID
	}
	var out model.Membership
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		var memberType string
		err := q.QueryRow(ctx, `
			INSERT INTO memberships (id, workspace_id, account_id, type, created_at, updated_at)
			VALUES ($1, $2, $3, $4::membership_type, $5, $5)
			RETURNING id, workspace_id, account_id, type::text, created_at`,
			r.newID(), workspaceID, acc, string(t), r.now().UTC(),
		).Scan(&out.ID, &out.WorkspaceID, &out.AccountID, &memberType, &out.CreatedAt)
		out.Type = domainauth.MembershipType(memberType)
		return err
	})
	return out, dbErr("attach membership", err)
}

// FindMembership returns the workspace only when (workspace, membership, account) is one row.
func (r *WorkspaceRepo) FindMembership(
	ctx context.Context,
	tx pgx.Tx,
	workspaceID, membershipID, accountID string,
) (model.Workspace, error) {
	var out model.Workspace
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		rows, err := q.Query(ctx, `
			SELECT w.id, w.slug, w.created_at
			FROM workspaces w
			JOIN memberships m ON m.workspace_id = w.id
			WHERE w.id = $1 AND m.id = $2 AND m.account_id = $3`,
			workspaceID, membershipID, accountID,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Workspace])
		return err
	})
	return out, dbErr("find membership", err)
}

// FindBySlugForAccount returns the workspace named slug seen through accountID's membership.
func (r *WorkspaceRepo) FindBySlugForAccount(
	ctx context.Context,
	tx pgx.Tx,
	slug, accountID string,
) (model.WorkspaceWithMembership, error) {
	var out model.WorkspaceWithMembership
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		row := q.QueryRow(ctx, `
			SELECT `+workspaceMembershipColumns+`
			FROM workspaces w
			JOIN memberships m ON m.workspace_id = w.id
			WHERE w.slug = $1 AND m.account_id = $2
			ORDER BY m.created_at, m.id
			LIMIT 1`,
			slug, accountID,
		)
		var err error
		out, err = scanWorkspaceWithMembership(row)
		return err
	})
	return out, dbErr("find workspace by slug", err)
}

// ListForAccount returns every workspace accountID belongs to, oldest membership first.
func (r *WorkspaceRepo) ListForAccount(
	ctx context.Context,
	tx pgx.Tx,
	accountID string,
) ([]model.WorkspaceWithMembership, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	var out []model.WorkspaceWithMembership
	err := pgxutil.WithQuerier(ctx, r.DB, tx, func(q pgxutil.Querier) error {
		rows, err := q.Query(ctx, `
			SELECT `+workspaceMembershipColumns+`
			FROM memberships m
			JOIN workspaces w ON w.id = m.workspace_id
			WHERE m.account_id = $1
			ORDER BY m.created_at, m.id`,
			accountID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			item, scanErr := scanWorkspaceWithMembership(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	return out, dbErr("list memberships", err)
}

var _ ports.WorkspaceStore = (*WorkspaceRepo)(nil)
