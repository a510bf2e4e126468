package oidc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/multiauth/internal/domain/auth"
)

// ErrMissingSubject is returned when the subject expression yields nothing.
var ErrMissingSubject = errors.New("provider claims carry no subject")

// ClaimMapping holds JMESPath expressions evaluated against the provider's
// claims (id_token or user API payload). Empty expressions map to "".
type ClaimMapping struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// DefaultOIDCMapping reads standard OpenID Connect claims.
var DefaultOIDCMapping = ClaimMapping{
	Subject:   "sub",
	Email:     "email",
	FirstName: "given_name",
	LastName:  "family_name",
}

// DefaultGitHubMapping reads the GitHub /user payload.
var DefaultGitHubMapping = ClaimMapping{
	Subject:   "to_string(id)",
	Email:     "email",
	FirstName: "name || login",
	LastName:  "",
}

// Merge returns m with empty expressions taken from def.
func (m ClaimMapping) Merge(def ClaimMapping) ClaimMapping {
	if m.Subject == "" {
		m.Subject = def.Subject
	}
	if m.Email == "" {
		m.Email = def.Email
	}
	if m.FirstName == "" {
		m.FirstName = def.FirstName
	}
	if m.LastName == "" {
		m.LastName = def.LastName
	}
	return m
}

// Validate compiles every non-empty expression.
func (m ClaimMapping) Validate() error {
	for name, expr := range map[string]string{
		"subject":    m.Subject,
		"email":      m.Email,
		"first_name": m.FirstName,
		"last_name":  m.LastName,
	} {
		if expr == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("claim mapping %s: %w", name, err)
		}
	}
	return nil
}

// Map evaluates the mapping against claims.
func (m ClaimMapping) Map(provider string, claims map[string]any) (domainauth.Identity, error) {
	id := domainauth.Identity{Provider: provider}
	var err error
	if id.Subject, err = evalString(m.Subject, claims); err != nil {
		return domainauth.Identity{}, err
	}
	if id.Subject == "" {
		return domainauth.Identity{}, ErrMissingSubject
	}
	if id.Email, err = evalString(m.Email, claims); err != nil {
		return domainauth.Identity{}, err
	}
	id.Email = strings.ToLower(id.Email)
	if id.FirstName, err = evalString(m.FirstName, claims); err != nil {
		return domainauth.Identity{}, err
	}
	if id.LastName, err = evalString(m.LastName, claims); err != nil {
		return domainauth.Identity{}, err
	}
	if id.LastName == "" && strings.Contains(id.FirstName, " ") {
		first, last, _ := strings.Cut(id.FirstName, " ")
		id.FirstName, id.LastName = first, strings.TrimSpace(last)
	}
	return id, nil
}

func evalString(expr string, data map[string]any) (string, error) {
	if expr == "" {
		return "", nil
	}
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("evaluate %q: unexpected %T", expr, v)
	}
}
