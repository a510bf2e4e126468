package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
)

// Redirect targets produced by session transitions.
const (
	RedirectSignIn = "/sign-in"
	RedirectJoin   = "/join"
)

// WorkspacePath is the landing path of a workspace.
func WorkspacePath(slug string) string { return "/" + slug }

var (
	// ErrUnknownAccount is returned when switching to an account the session does not hold.
	ErrUnknownAccount = errors.New("account is not signed in on this browser")
	errNoSession      = errors.New("no session")
)

// ClientSession is what the browser presented. A nil field means the cookie
// was absent or failed to decode; both cases are treated alike.
type ClientSession struct {
	Auth  domainauth.AuthMap
	State *domainauth.CachedView
}

// VerifiedSession is a session whose current account token has been verified.
// Only SessionService.Resolve produces one.
type VerifiedSession struct {
	auth  domainauth.AuthMap
	state domainauth.SessionState
}

// AccountID is the verified current account.
func (v VerifiedSession) AccountID() string { return v.state.CurrentAccountID }

// MemberID is the current membership, or "" when no workspace is selected.
func (v VerifiedSession) MemberID() string { return v.state.CurrentMemberID }

// Auth returns a copy of the verified auth map.
func (v VerifiedSession) Auth() domainauth.AuthMap { return maps.Clone(v.auth) }

// State returns a copy of the session state.
func (v VerifiedSession) State() domainauth.SessionState { return v.state.Clone() }

// Transition is the outcome of a session action. The HTTP layer writes Auth
// and State together, or clears both when Teardown is set.
type Transition struct {
	Auth     domainauth.AuthMap
	State    domainauth.SessionState
	Redirect string
	Teardown bool
}

// RequireReauth is the terminal transition: clear both cookies and sign in again.
func RequireReauth() Transition {
	return Transition{Redirect: RedirectSignIn, Teardown: true}
}

// LoginInput is a password sign-in attempt.
type LoginInput struct {
	Identifier string
	Password   string
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Identity ports.IdentityResolver
	Tokens   ports.TokenCodec
	Throttle ports.LoginThrottle // Optional
	Logger   *slog.Logger        // Optional
}

// SessionService is the multi-account session state machine. It is stateless;
// every action maps the presented cookies to the next cookie pair.
type SessionService struct {
	identity ports.IdentityResolver
	tokens   ports.TokenCodec
	throttle ports.LoginThrottle
	logger   *slog.Logger
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Identity == nil {
		panic("IdentityResolver is required")
	}
	if opts.Tokens == nil {
		panic("TokenCodec is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		identity: opts.Identity,
		tokens:   opts.Tokens,
		throttle: opts.Throttle,
		logger:   logger.With("component", "session"),
	}
}

// Resolve verifies the presented cookies. Any error means RequireReauth.
func (s *SessionService) Resolve(ctx context.Context, c ClientSession) (VerifiedSession, error) {
	if c.State == nil {
		return VerifiedSession{}, errs.Wrap(errNoSession, errs.ErrCodeSessionInconsistent, "session state missing")
	}
	state := c.State.Claimed()
	if state.CurrentAccountID == "" {
		return VerifiedSession{}, errs.Wrap(errNoSession, errs.ErrCodeSessionInconsistent, "no current account")
	}
	if err := state.Validate(); err != nil {
		return VerifiedSession{}, errs.Wrap(err, errs.ErrCodeSessionInconsistent, "session state invalid")
	}
	if c.Auth == nil {
		return VerifiedSession{}, errs.Wrap(errNoSession, errs.ErrCodeSessionInconsistent, "auth missing")
	}
	if _, ok := c.Auth[state.CurrentAccountID]; !ok {
		return VerifiedSession{}, errs.SessionInconsistentf("current account has no credential")
	}
	for id, token := range c.Auth {
		if err := s.verifyFor(id, token); err != nil {
			s.logger.DebugContext(ctx, "session credential rejected", "account_id", id, "error", err)
			return VerifiedSession{}, err
		}
	}
	return VerifiedSession{auth: maps.Clone(c.Auth), state: state}, nil
}

func (s *SessionService) verifyFor(accountID string, token domainauth.SignedCredential) error {
	actor, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	if actor.Type != domainauth.ActorTypeAccount || actor.AccountID != accountID {
		return errs.InvalidToken(fmt.Errorf("token actor %q does not match key %q", actor.AccountID, accountID))
	}
	return nil
}

// Login checks a password credential and adds the account to the session.
func (s *SessionService) Login(ctx context.Context, prior ClientSession, in LoginInput) (Transition, error) {
	key := strings.ToLower(strings.TrimSpace(in.Identifier))
	if key == "" || in.Password == "" {
		return Transition{}, errs.InvalidCredential()
	}
	if err := s.checkThrottle(ctx, key); err != nil {
		return Transition{}, err
	}

	acc, err := s.identity.FindAccountByIdentifier(ctx, model.IdentifierEmail, key)
	if err != nil {
		if errs.IsNotFound(err) {
			// burn a hash comparison so unknown identifiers answer as slowly as wrong passwords
			_, _ = s.identity.VerifyCredential(ctx, "", in.Password)
			return Transition{}, s.failLogin(ctx, key)
		}
		return Transition{}, err
	}
	ok, err := s.identity.VerifyCredential(ctx, acc.ID, in.Password)
	if err != nil {
		return Transition{}, err
	}
	if !ok {
		return Transition{}, s.failLogin(ctx, key)
	}
	if s.throttle != nil {
		if resetErr := s.throttle.Reset(ctx, key); resetErr != nil {
			s.logger.WarnContext(ctx, "reset login throttle failed", "error", resetErr)
		}
	}
	return s.Authenticate(ctx, prior, acc)
}

// AddAccount signs another account into the same browser. The token is merged,
// never replacing the credentials already held.
func (s *SessionService) AddAccount(ctx context.Context, prior ClientSession, in LoginInput) (Transition, error) {
	return s.Login(ctx, prior, in)
}

func (s *SessionService) checkThrottle(ctx context.Context, key string) error {
	if s.throttle == nil {
		return nil
	}
	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		// fail open; the credential check still runs
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return nil
	}
	if !allowed {
		return errs.RateLimited("Too many failed sign-in attempts, try again later")
	}
	return nil
}

func (s *SessionService) failLogin(ctx context.Context, key string) error {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "record login failure failed", "error", err)
		}
	}
	return errs.InvalidCredential()
}

// Authenticate is the convergence point of every sign-in path: mint a token
// for acc, merge it into the prior session and land on a workspace.
func (s *SessionService) Authenticate(ctx context.Context, prior ClientSession, acc model.Account) (Transition, error) {
	token, err := s.tokens.Issue(domainauth.AccountActor(acc.ID))
	if err != nil {
		return Transition{}, errs.AsInternal(err, "issue token")
	}
	auth, state := s.carryOver(ctx, prior)
	auth = auth.With(acc.ID, token)

	view, ok := state.Accounts[acc.ID]
	if !ok {
		view = domainauth.AccountView{ID: acc.ID, Memberships: map[string]domainauth.MembershipView{}}
	}
	view.DisplayName = acc.DisplayName()
	state.Accounts[acc.ID] = view
	state.CurrentAccountID = acc.ID
	state.CurrentMemberID = ""

	return s.land(ctx, auth, state, acc.ID)
}

// carryOver keeps the prior entries whose token still verifies, so a stale
// credential cannot poison the new session.
func (s *SessionService) carryOver(ctx context.Context, prior ClientSession) (domainauth.AuthMap, domainauth.SessionState) {
	state := domainauth.EmptySessionState()
	if prior.State != nil {
		claimed := prior.State.Claimed()
		if claimed.Validate() == nil {
			state = claimed
		}
	}
	auth := domainauth.AuthMap{}
	for id, token := range prior.Auth {
		if err := s.verifyFor(id, token); err != nil {
			s.logger.DebugContext(ctx, "dropping stale credential", "account_id", id)
			continue
		}
		if _, known := state.Accounts[id]; !known {
			// the state cookie lost this account; keeping the token would split the pair
			s.logger.DebugContext(ctx, "dropping credential without state", "account_id", id)
			continue
		}
		auth[id] = token
	}
	for id := range state.Accounts {
		if _, ok := auth[id]; !ok {
			delete(state.Accounts, id)
		}
	}
	return auth, state
}

// land selects the available workspace of accountID, which must be the current account.
func (s *SessionService) land(
	ctx context.Context,
	auth domainauth.AuthMap,
	state domainauth.SessionState,
	accountID string,
) (Transition, error) {
	ws, err := s.identity.GetAvailableWorkspace(ctx, accountID)
	if errs.IsNotFound(err) {
		state.CurrentMemberID = ""
		return Transition{Auth: auth, State: state, Redirect: RedirectJoin}, nil
	}
	if err != nil {
		return Transition{}, err
	}
	view := state.Accounts[accountID]
	view.Memberships[ws.Membership.ID] = ws.View()
	state.Accounts[accountID] = view
	state.CurrentMemberID = ws.Membership.ID
	return Transition{Auth: auth, State: state, Redirect: WorkspacePath(ws.Workspace.Slug)}, nil
}

// SignUpResult is the outcome of SignUp.
type SignUpResult struct {
	Account    model.Account
	Transition Transition
}

// SignUp registers an e-mail account and starts a fresh session for it alone.
func (s *SessionService) SignUp(ctx context.Context, in domainauth.SignUpInput) (SignUpResult, error) {
	if err := in.Validate(); err != nil {
		return SignUpResult{}, err
	}
	email, err := domainauth.ParseEmail(in.Email)
	if err != nil {
		return SignUpResult{}, err
	}
	password, err := domainauth.ParsePassword(in.Password)
	if err != nil {
		return SignUpResult{}, err
	}
	exists, err := s.identity.IdentifierExists(ctx, model.IdentifierEmail, email.String())
	if err != nil {
		return SignUpResult{}, err
	}
	claimed, err := domainauth.ClaimIdentifier(email, exists)
	if err != nil {
		return SignUpResult{}, err
	}

	acc, err := s.identity.RegisterEmailAccount(ctx, ports.RegisterInput{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     claimed,
		Password:  password,
	})
	if err != nil {
		return SignUpResult{}, err
	}
	token, err := s.tokens.Issue(domainauth.AccountActor(acc.ID))
	if err != nil {
		return SignUpResult{}, errs.AsInternal(err, "issue token")
	}
	state := domainauth.EmptySessionState()
	state.CurrentAccountID = acc.ID
	state.Accounts[acc.ID] = domainauth.AccountView{
		ID:          acc.ID,
		DisplayName: acc.DisplayName(),
		Memberships: map[string]domainauth.MembershipView{},
	}
	return SignUpResult{
		Account: acc,
		Transition: Transition{
			Auth:     domainauth.AuthMap{acc.ID: token},
			State:    state,
			Redirect: RedirectJoin,
		},
	}, nil
}

// Logout signs the current account out. The last account out tears the session down;
// otherwise the next account in sorted order becomes current.
func (s *SessionService) Logout(ctx context.Context, v VerifiedSession) (Transition, error) {
	current := v.AccountID()
	auth := v.auth.Without(current)
	if len(auth) == 0 {
		return RequireReauth(), nil
	}
	state := v.State()
	delete(state.Accounts, current)

	next := auth.AccountIDs()[0]
	if _, ok := state.Accounts[next]; !ok {
		s.logger.WarnContext(ctx, "session state mismatch", "account_id", next, "reason", "no cached view")
		return RequireReauth(), nil
	}
	state.CurrentAccountID = next
	state.CurrentMemberID = state.FirstMembershipID(next)
	if state.CurrentMemberID == "" {
		return Transition{Auth: auth, State: state, Redirect: RedirectJoin}, nil
	}
	return s.guardedWorkspaceRedirect(ctx, auth, state)
}

// SwitchAccount makes target the current account. Target must already be signed in.
func (s *SessionService) SwitchAccount(ctx context.Context, v VerifiedSession, target string) (Transition, error) {
	state := v.State()
	view, ok := state.Accounts[target]
	if !ok {
		return Transition{}, errs.Wrap(ErrUnknownAccount, errs.ErrCodeValidation, "account is not signed in")
	}
	if _, ok := v.auth[target]; !ok {
		return Transition{}, errs.SessionInconsistentf("account %s has no credential", target)
	}
	acc, err := s.identity.GetAccount(ctx, target)
	if err != nil {
		return Transition{}, err
	}
	view.DisplayName = acc.DisplayName()
	state.Accounts[target] = view
	state.CurrentAccountID = target
	state.CurrentMemberID = ""
	return s.land(ctx, v.Auth(), state, target)
}

// CreateWorkspaceAndJoin creates a workspace owned by the current account and selects it.
func (s *SessionService) CreateWorkspaceAndJoin(ctx context.Context, v VerifiedSession, rawSlug string) (Transition, error) {
	slug, err := domainauth.ParseSafeSlug(rawSlug)
	if err != nil {
		return Transition{}, err
	}
	ws, err := s.identity.CreateWorkspaceAndJoin(ctx, slug, v.AccountID(), domainauth.MembershipAdmin)
	if err != nil {
		return Transition{}, err
	}
	state := v.State()
	view := state.Accounts[v.AccountID()]
	view.Memberships[ws.Membership.ID] = ws.View()
	state.Accounts[v.AccountID()] = view
	state.CurrentMemberID = ws.Membership.ID
	return Transition{Auth: v.Auth(), State: state, Redirect: WorkspacePath(ws.Workspace.Slug)}, nil
}

// ResolveLanding decides where the index page sends a verified session.
func (s *SessionService) ResolveLanding(ctx context.Context, v VerifiedSession) (Transition, error) {
	if v.MemberID() == "" {
		return Transition{Auth: v.Auth(), State: v.State(), Redirect: RedirectJoin}, nil
	}
	return s.guardedWorkspaceRedirect(ctx, v.Auth(), v.State())
}

// SelectWorkspace switches the current account to its membership in the workspace named slug.
func (s *SessionService) SelectWorkspace(ctx context.Context, v VerifiedSession, slug string) (Transition, error) {
	ws, err := s.identity.FindMembershipBySlug(ctx, v.AccountID(), strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return Transition{}, err
	}
	if rememberErr := s.identity.RememberWorkspace(ctx, v.AccountID(), ws.Workspace.ID); rememberErr != nil {
		return Transition{}, rememberErr
	}
	state := v.State()
	view := state.Accounts[v.AccountID()]
	view.Memberships[ws.Membership.ID] = ws.View()
	state.Accounts[v.AccountID()] = view
	state.CurrentMemberID = ws.Membership.ID
	return Transition{Auth: v.Auth(), State: state, Redirect: WorkspacePath(ws.Workspace.Slug)}, nil
}

// guardedWorkspaceRedirect re-checks the cached current membership against the
// store before redirecting into its workspace.
func (s *SessionService) guardedWorkspaceRedirect(
	ctx context.Context,
	auth domainauth.AuthMap,
	state domainauth.SessionState,
) (Transition, error) {
	m, ok := state.CurrentMembership()
	if !ok {
		return RequireReauth(), nil
	}
	ws, err := s.identity.ConfirmMembership(ctx, state.CurrentAccountID, m.ID, m.Workspace.ID)
	if errs.IsNotFound(err) {
		s.logger.WarnContext(ctx, "session state mismatch",
			"account_id", state.CurrentAccountID,
			"member_id", m.ID,
			"workspace_id", m.Workspace.ID,
		)
		return RequireReauth(), nil
	}
	if err != nil {
		return Transition{}, err
	}
	return Transition{Auth: auth, State: state, Redirect: WorkspacePath(ws.Slug)}, nil
}
