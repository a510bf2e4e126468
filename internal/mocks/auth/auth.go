package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
	"golang.org/x/oauth2"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityResolver = (*MemoryIdentity)(nil)
	_ ports.OAuthProvider    = (*FakeProvider)(nil)
	_ ports.ProviderRegistry = StaticRegistry(nil)
	_ ports.LoginThrottle    = (*MemoryThrottle)(nil)
	_ ports.Transactor       = PassthroughTx{}
)

type identifierKey struct {
	t     model.IdentifierType
	value string
}

// MemoryIdentity is an in-memory IdentityResolver. Passwords are stored in
// clear text; IDs are deterministic ("acc-1", "ws-1", "mem-1", ...).
type MemoryIdentity struct {
	mu          sync.Mutex
	seq         int
	accounts    map[string]model.Account
	passwords   map[string]string
	identifiers map[identifierKey]string
	workspaces  map[string]model.Workspace
	memberships []model.Membership
}

// NewMemoryIdentity creates an empty store.
func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		accounts:    map[string]model.Account{},
		passwords:   map[string]string{},
		identifiers: map[identifierKey]string{},
		workspaces:  map[string]model.Workspace{},
	}
}

func (m *MemoryIdentity) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// SeedAccount adds an e-mail account with a clear-text password.
func (m *MemoryIdentity) SeedAccount(first, last, email, password string) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := model.Account{ID: m.nextID("acc"), FirstName: first, LastName: last, PrimaryEmail: email}
	m.accounts[acc.ID] = acc
	m.passwords[acc.ID] = password
	m.identifiers[identifierKey{model.IdentifierEmail, strings.ToLower(email)}] = acc.ID
	return acc
}

// SeedWorkspace creates a workspace and attaches accountID to it.
func (m *MemoryIdentity) SeedWorkspace(slug, accountID string, t domainauth.MembershipType) model.WorkspaceWithMembership {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createWorkspace(slug, accountID, t)
}

func (m *MemoryIdentity) createWorkspace(slug, accountID string, t domainauth.MembershipType) model.WorkspaceWithMembership {
	ws := model.Workspace{ID: m.nextID("ws"), Slug: slug}
	m.workspaces[ws.ID] = ws
	owner := accountID
	mem := model.Membership{ID: m.nextID("mem"), WorkspaceID: ws.ID, AccountID: &owner, Type: t}
	m.memberships = append(m.memberships, mem)
	return model.WorkspaceWithMembership{Workspace: ws, Membership: mem}
}

// RemoveMembership deletes a membership, simulating a change made elsewhere.
func (m *MemoryIdentity) RemoveMembership(membershipID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships = slices.DeleteFunc(m.memberships, func(mem model.Membership) bool {
		return mem.ID == membershipID
	})
}

// RenameWorkspace changes the slug of a stored workspace.
func (m *MemoryIdentity) RenameWorkspace(workspaceID, slug string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return
	}
	ws.Slug = slug
	m.workspaces[workspaceID] = ws
}

// LastUsedWorkspace returns the stored preference of accountID.
func (m *MemoryIdentity) LastUsedWorkspace(accountID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Preferences.LastUsedWorkspace
}

// AccountCount returns the number of stored accounts.
func (m *MemoryIdentity) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *MemoryIdentity) FindAccountByIdentifier(
	_ context.Context,
	t model.IdentifierType,
	value string,
) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identifiers[identifierKey{t, value}]
	if !ok {
		return model.Account{}, errs.NotFound("account not found")
	}
	return m.accounts[id], nil
}

func (m *MemoryIdentity) IdentifierExists(_ context.Context, t model.IdentifierType, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.identifiers[identifierKey{t, value}]
	return ok, nil
}

func (m *MemoryIdentity) VerifyCredential(_ context.Context, accountID, secret string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pw, ok := m.passwords[accountID]
	return ok && pw != "" && pw == secret, nil
}

func (m *MemoryIdentity) GetAccount(_ context.Context, accountID string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return model.Account{}, errs.NotFound("account not found")
	}
	return acc, nil
}

func (m *MemoryIdentity) RegisterEmailAccount(_ context.Context, in ports.RegisterInput) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identifierKey{model.IdentifierEmail, in.Email.String()}
	if _, ok := m.identifiers[key]; ok {
		return model.Account{}, errs.Duplicate("email", "email already exists")
	}
	acc := model.Account{ID: m.nextID("acc"), FirstName: in.FirstName, LastName: in.LastName, PrimaryEmail: key.value}
	m.accounts[acc.ID] = acc
	m.passwords[acc.ID] = in.Password.Reveal()
	m.identifiers[key] = acc.ID
	return acc, nil
}

func (m *MemoryIdentity) ResolveOAuth(_ context.Context, identity domainauth.Identity) (model.Account, error) {
	t, ok := model.OAuthIdentifierType(identity.Provider)
	if !ok {
		return model.Account{}, errs.Validation("unsupported provider")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identifierKey{t, identity.Subject}
	if id, found := m.identifiers[key]; found {
		return m.accounts[id], nil
	}
	acc := model.Account{
		ID:           m.nextID("acc"),
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		PrimaryEmail: identity.Email,
	}
	m.accounts[acc.ID] = acc
	m.identifiers[key] = acc.ID
	return acc, nil
}

func (m *MemoryIdentity) GetAvailableWorkspace(
	_ context.Context,
	accountID string,
) (model.WorkspaceWithMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := m.membershipsOf(accountID)
	if len(owned) == 0 {
		return model.WorkspaceWithMembership{}, errs.NotFound("no workspace")
	}
	last := m.accounts[accountID].Preferences.LastUsedWorkspace
	for _, wm := range owned {
		if wm.Workspace.ID == last {
			return wm, nil
		}
	}
	return owned[0], nil
}

func (m *MemoryIdentity) membershipsOf(accountID string) []model.WorkspaceWithMembership {
	var out []model.WorkspaceWithMembership
	for _, mem := range m.memberships {
		if mem.AccountID != nil && *mem.AccountID == accountID {
			out = append(out, model.WorkspaceWithMembership{Workspace: m.workspaces[mem.WorkspaceID], Membership: mem})
		}
	}
	return out
}

func (m *MemoryIdentity) ConfirmMembership(
	_ context.Context,
	accountID, membershipID, workspaceID string,
) (model.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wm := range m.membershipsOf(accountID) {
		if wm.Membership.ID == membershipID && wm.Workspace.ID == workspaceID {
			return wm.Workspace, nil
		}
	}
	return model.Workspace{}, errs.NotFound("membership not found")
}

func (m *MemoryIdentity) FindMembershipBySlug(
	_ context.Context,
	accountID, slug string,
) (model.WorkspaceWithMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wm := range m.membershipsOf(accountID) {
		if wm.Workspace.Slug == slug {
			return wm, nil
		}
	}
	return model.WorkspaceWithMembership{}, errs.NotFound("workspace not found")
}

func (m *MemoryIdentity) CreateWorkspaceAndJoin(
	_ context.Context,
	slug domainauth.SafeSlug,
	accountID string,
	t domainauth.MembershipType,
) (model.WorkspaceWithMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if ws.Slug == slug.String() {
			return model.WorkspaceWithMembership{}, errs.Duplicate("slug", "This name already exists")
		}
	}
	wm := m.createWorkspace(slug.String(), accountID, t)
	acc := m.accounts[accountID]
	acc.Preferences.LastUsedWorkspace = wm.Workspace.ID
	m.accounts[accountID] = acc
	return wm, nil
}

func (m *MemoryIdentity) RememberWorkspace(_ context.Context, accountID, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return errs.NotFound("account not found")
	}
	acc.Preferences.LastUsedWorkspace = workspaceID
	m.accounts[accountID] = acc
	return nil
}

func (m *MemoryIdentity) ListMemberships(
	_ context.Context,
	accountID string,
) ([]model.WorkspaceWithMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.membershipsOf(accountID), nil
}

// FakeProvider is an OAuthProvider whose authorization URL echoes its inputs.
type FakeProvider struct {
	ProviderName string
	Identity     domainauth.Identity
	ExchangeErr  error

	mu           sync.Mutex
	LastCode     string
	LastVerifier string
}

func (p *FakeProvider) Name() string { return p.ProviderName }

func (p *FakeProvider) AuthCodeURL(state, verifier string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	q.Set("code_challenge_method", "S256")
	return "https://idp.example.com/authorize?" + q.Encode()
}

func (p *FakeProvider) Exchange(ctx context.Context, code, verifier string) (domainauth.Identity, error) {
	p.mu.Lock()
	p.LastCode, p.LastVerifier = code, verifier
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domainauth.Identity{}, err
	}
	if p.ExchangeErr != nil {
		return domainauth.Identity{}, p.ExchangeErr
	}
	id := p.Identity
	id.Provider = p.ProviderName
	return id, nil
}

// StaticRegistry serves a fixed set of providers.
type StaticRegistry map[string]ports.OAuthProvider

func (r StaticRegistry) Provider(_ context.Context, name string) (ports.OAuthProvider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ports.ErrUnknownProvider, name)
	}
	return p, nil
}

func (r StaticRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// MemoryThrottle blocks an identifier after Max failures.
type MemoryThrottle struct {
	Max int

	mu       sync.Mutex
	failures map[string]int
}

func (t *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures[key] < t.Max, nil
}

func (t *MemoryThrottle) RecordFailure(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failures == nil {
		t.failures = map[string]int{}
	}
	t.failures[key]++
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, key)
	return nil
}

// Failures returns the recorded failure count for key.
func (t *MemoryThrottle) Failures(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures[key]
}

// PassthroughTx runs fn with the caller's tx, which is nil in unit tests.
type PassthroughTx struct{}

func (PassthroughTx) WithTx(_ context.Context, tx ports.Tx, fn func(tx ports.Tx) error) error {
	return fn(tx)
}
