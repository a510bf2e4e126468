package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubConfig configures the GitHub provider. GitHub does not speak OIDC, so
// the identity comes from the REST user API.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Claims       ClaimMapping
	// Endpoint and APIBaseURL are overridable for tests and GitHub Enterprise.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
	HTTPClient *http.Client
}

// GitHubProvider implements ports.OAuthProvider for github.com.
type GitHubProvider struct {
	config     *oauth2.Config
	apiBase    string
	httpClient *http.Client
	mapping    ClaimMapping
}

// NewGitHubProvider validates cfg and builds the provider.
func NewGitHubProvider(cfg GitHubConfig) (*GitHubProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("github client credentials are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	mapping := cfg.Claims.Merge(DefaultGitHubMapping)
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.GitHub
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}
	apiBase := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultGitHubAPI
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiBase:    apiBase,
		httpClient: httpClient,
		mapping:    mapping,
	}, nil
}

// Name returns "github".
func (g *GitHubProvider) Name() string { return "github" }

// AuthCodeURL builds the authorization URL carrying state and the S256 challenge of verifier.
func (g *GitHubProvider) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, authOptions(verifier, nil)...)
}

// Exchange trades code for an access token and reads the user profile.
func (g *GitHubProvider) Exchange(ctx context.Context, code, verifier string) (domainauth.Identity, error) {
	if code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}
	client := g.config.Client(ctx, tok)

	user := map[string]any{}
	if err = g.getJSON(ctx, client, "/user", &user); err != nil {
		return domainauth.Identity{}, err
	}
	if email, _ := user["email"].(string); email == "" {
		if primary, lookupErr := g.primaryEmail(ctx, client); lookupErr == nil {
			user["email"] = primary
		}
	}

	identity, err := g.mapping.Map(g.Name(), user)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("map claims: %w", err)
	}
	return identity, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// primaryEmail returns the primary verified address; /user omits private addresses.
func (g *GitHubProvider) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []githubEmail
	if err := g.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", errors.New("no primary verified email")
}

func (g *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode github %s: %w", path, err)
	}
	return nil
}

var _ ports.OAuthProvider = (*GitHubProvider)(nil)
