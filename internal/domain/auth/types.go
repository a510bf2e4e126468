package auth

// Package auth contains the session domain: the signed credentials a browser holds,
// the unsigned cached view of what each account can access, and the OAuth exchange state.
// It is pure and free of transport concerns.

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ActorType identifies what kind of principal a token speaks for.
type ActorType string

// ActorTypeAccount is the only actor kind issued today.
const ActorTypeAccount ActorType = "account"

// Actor is the identity payload embedded in a signed token.
type Actor struct {
	Type      ActorType `json:"type"`
	AccountID string    `json:"accountID"`
}

// AccountActor builds the actor for an account.
func AccountActor(accountID string) Actor {
	return Actor{Type: ActorTypeAccount, AccountID: accountID}
}

// SignedCredential is a compact signed bearer token minted by the token codec.
// Holding one proves nothing until it has been verified.
type SignedCredential string

// AuthMap maps account IDs to the bearer tokens the browser holds for them.
type AuthMap map[string]SignedCredential

// With returns a copy of m with accountID bound to token. Existing entries are kept.
func (m AuthMap) With(accountID string, token SignedCredential) AuthMap {
	out := make(AuthMap, len(m)+1)
	maps.Copy(out, m)
	out[accountID] = token
	return out
}

// Without returns a copy of m without accountID.
func (m AuthMap) Without(accountID string) AuthMap {
	out := maps.Clone(m)
	if out == nil {
		out = AuthMap{}
	}
	delete(out, accountID)
	return out
}

// AccountIDs returns the keys in ascending order.
func (m AuthMap) AccountIDs() []string {
	return slices.Sorted(maps.Keys(m))
}

// WorkspaceRef is the cached identity of a workspace.
type WorkspaceRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// MembershipView is the cached view of one membership.
type MembershipView struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Workspace WorkspaceRef `json:"workspace"`
}

// AccountView is the cached view of one signed-in account.
type AccountView struct {
	ID          string                    `json:"id"`
	DisplayName string                    `json:"displayName"`
	Memberships map[string]MembershipView `json:"memberships"`
}

// SessionState is the denormalized "app state" snapshot. It is a cache; the store is authoritative.
type SessionState struct {
	CurrentAccountID string                 `json:"currentAccountID"`
	CurrentMemberID  string                 `json:"currentMemberID"`
	Accounts         map[string]AccountView `json:"accounts"`
}

// Invariant violations reported by SessionState.Validate.
var (
	ErrUnknownCurrentAccount = errors.New("current account is not part of the session")
	ErrUnknownCurrentMember  = errors.New("current member is not a membership of the current account")
	ErrViewKeyMismatch       = errors.New("cached view key does not match its id")
)

// EmptySessionState returns a state with no accounts.
func EmptySessionState() SessionState {
	return SessionState{Accounts: map[string]AccountView{}}
}

// Clone returns a deep copy so callers can build the next state without touching the input.
func (s SessionState) Clone() SessionState {
	out := SessionState{
		CurrentAccountID: s.CurrentAccountID,
		CurrentMemberID:  s.CurrentMemberID,
		Accounts:         make(map[string]AccountView, len(s.Accounts)),
	}
	for id, acc := range s.Accounts {
		acc.Memberships = maps.Clone(acc.Memberships)
		if acc.Memberships == nil {
			acc.Memberships = map[string]MembershipView{}
		}
		out.Accounts[id] = acc
	}
	return out
}

// Validate checks the structural invariants of the snapshot.
func (s SessionState) Validate() error {
	for id, acc := range s.Accounts {
		if id == "" || acc.ID != id {
			return fmt.Errorf("account %q: %w", id, ErrViewKeyMismatch)
		}
		for mid, m := range acc.Memberships {
			if mid == "" || m.ID != mid {
				return fmt.Errorf("membership %q: %w", mid, ErrViewKeyMismatch)
			}
			if !MembershipType(m.Type).Valid() {
				return fmt.Errorf("membership %q has type %q", mid, m.Type)
			}
			if m.Workspace.ID == "" || m.Workspace.Slug == "" {
				return fmt.Errorf("membership %q has an empty workspace", mid)
			}
		}
	}
	if s.CurrentAccountID == "" {
		if s.CurrentMemberID != "" {
			return ErrUnknownCurrentMember
		}
		return nil
	}
	acc, ok := s.Accounts[s.CurrentAccountID]
	if !ok {
		return ErrUnknownCurrentAccount
	}
	if s.CurrentMemberID != "" {
		if _, ok := acc.Memberships[s.CurrentMemberID]; !ok {
			return ErrUnknownCurrentMember
		}
	}
	return nil
}

// CurrentMembership returns the cached membership the session points at, if any.
func (s SessionState) CurrentMembership() (MembershipView, bool) {
	if s.CurrentMemberID == "" {
		return MembershipView{}, false
	}
	m, ok := s.Accounts[s.CurrentAccountID].Memberships[s.CurrentMemberID]
	return m, ok
}

// FirstMembershipID returns the smallest membership ID of accountID, or "".
func (s SessionState) FirstMembershipID(accountID string) string {
	ids := slices.Sorted(maps.Keys(s.Accounts[accountID].Memberships))
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// CachedView wraps a SessionState that came from the client unsigned.
// It is only good for rendering and as the base of the next state; authorization
// decisions need a verified session.
type CachedView struct {
	state SessionState
}

// NewCachedView wraps a decoded snapshot.
func NewCachedView(s SessionState) CachedView {
	return CachedView{state: s}
}

// Claimed returns a copy of the unverified snapshot.
func (c CachedView) Claimed() SessionState {
	if c.state.Accounts == nil {
		return EmptySessionState()
	}
	return c.state.Clone()
}

// MembershipType is the role an account has in a workspace.
type MembershipType string

const (
	MembershipAdmin   MembershipType = "admin"
	MembershipRegular MembershipType = "regular"
)

// Valid reports whether the membership type is supported.
func (t MembershipType) Valid() bool {
	return t == MembershipAdmin || t == MembershipRegular
}

// Identity is what an OAuth provider tells us about the signed-in user.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Provider  string
	Subject   string // stable provider user id ("sub" or numeric GitHub id)
	Email     string
	FirstName string
	LastName  string
}

// OAuthExchangeState is the transient per-attempt context of an authorization-code exchange.
type OAuthExchangeState struct {
	Provider     string
	State        string
	CodeVerifier string
	RedirectURI  string
}

// Complete reports whether every field was recovered.
func (e OAuthExchangeState) Complete() bool {
	return e.Provider != "" && e.State != "" && e.CodeVerifier != "" && e.RedirectURI != ""
}
