//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"

	domainauth "github.com/target/multiauth/internal/domain/auth"
)

// IdentifierType names how an account can be looked up.
type IdentifierType string

const (
	IdentifierEmail       IdentifierType = "email"
	IdentifierOAuthGoogle IdentifierType = "oauth_google"
	IdentifierOAuthGitHub IdentifierType = "oauth_github"
	IdentifierOAuthOIDC   IdentifierType = "oauth_oidc"
)

// Valid reports whether the identifier type is supported.
func (t IdentifierType) Valid() bool {
	switch t {
	case IdentifierEmail, IdentifierOAuthGoogle, IdentifierOAuthGitHub, IdentifierOAuthOIDC:
		return true
	default:
		return false
	}
}

// OAuthIdentifierType returns the identifier type used for accounts created through provider.
func OAuthIdentifierType(provider string) (IdentifierType, bool) {
	t := IdentifierType("oauth_" + strings.ToLower(provider))
	if t == IdentifierEmail || !t.Valid() {
		return "", false
	}
	return t, true
}

// Preferences are per-account settings stored as JSON.
type Preferences struct {
	LastUsedWorkspace string `json:"lastUsedWorkspace,omitempty"`
}

// Account is a person who can sign in.
type Account struct {
	ID           string      `json:"id"            db:"id"`
	FirstName    string      `json:"first_name"    db:"first_name"`
	LastName     string      `json:"last_name"     db:"last_name"`
	PrimaryEmail string      `json:"primary_email" db:"primary_email"`
	PasswordHash *string     `json:"-"             db:"password"`
	Preferences  Preferences `json:"preferences"   db:"preferences"`
	CreatedAt    time.Time   `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"    db:"updated_at"`
}

// DisplayName is the label cached in the session.
func (a Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Identifier binds an external handle (e-mail, OAuth subject) to an account.
type Identifier struct {
	Type      IdentifierType `json:"type"       db:"type"`
	Value     string         `json:"value"      db:"value"`
	AccountID string         `json:"account_id" db:"account_id"`
}

// Profile carries the data needed to create an account.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	// PasswordHash is nil for accounts created through an OAuth provider.
	PasswordHash *string
}

// Workspace is a tenant.
type Workspace struct {
	ID        string    `json:"id"         db:"id"`
	Slug      string    `json:"slug"       db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Membership binds an account to a workspace.
type Membership struct {
	ID          string                    `json:"id"           db:"id"`
	WorkspaceID string                    `json:"workspace_id" db:"workspace_id"`
	AccountID   *string                   `json:"account_id"   db:"account_id"`
	Type        domainauth.MembershipType `json:"type"         db:"type"`
	CreatedAt   time.Time                 `json:"created_at"   db:"created_at"`
}

// WorkspaceWithMembership is a workspace seen through one of its memberships.
type WorkspaceWithMembership struct {
	Workspace  Workspace
	Membership Membership
}

// View converts the pair into the cached session representation.
func (w WorkspaceWithMembership) View() domainauth.MembershipView {
	return domainauth.MembershipView{
		ID:   w.Membership.ID,
		Type: string(w.Membership.Type),
		Workspace: domainauth.WorkspaceRef{
			ID:   w.Workspace.ID,
			Slug: w.Workspace.Slug,
		},
	}
}
