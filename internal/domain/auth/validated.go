package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	errs "github.com/target/multiauth/internal/errors"
)

const (
	slugMinLen     = 3
	slugMaxLen     = 255
	passwordMinLen = 8
	passwordMaxLen = 256
	nameMinLen     = 2
	nameMaxLen     = 255
	emailMaxLen    = 255
)

var slugPattern = regexp.MustCompile(`^[a-z0-9\-_]+$`)

// reservedSlugs are first path segments the router serves itself, so a
// workspace of that name could never be reached at /{slug}.
var reservedSlugs = map[string]struct{}{
	"add-account":    {},
	"auth":           {},
	"healthz":        {},
	"join":           {},
	"session":        {},
	"sign-in":        {},
	"sign-out":       {},
	"sign-up":        {},
	"switch-account": {},
	"w":              {},
}

// IsReservedSlug reports whether slug collides with a fixed route.
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// SafeSlug is a workspace slug that passed ParseSafeSlug.
type SafeSlug struct{ value string }

// String returns the slug.
func (s SafeSlug) String() string { return s.value }

// ParseSafeSlug trims and lowercases raw and checks length and alphabet.
func ParseSafeSlug(raw string) (SafeSlug, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	err := validation.Validate(v,
		validation.Required,
		validation.Length(slugMinLen, slugMaxLen),
		validation.Match(slugPattern).Error("must contain only lowercase letters, digits, dashes and underscores"),
		validation.By(func(any) error {
			if IsReservedSlug(v) {
				return errors.New("is reserved")
			}
			return nil
		}),
	)
	if err != nil {
		return SafeSlug{}, errs.ValidationField("slug", err.Error())
	}
	return SafeSlug{value: v}, nil
}

// ValidPassword is a secret that passed ParsePassword.
type ValidPassword struct{ value string }

// Reveal returns the raw secret for hashing.
func (p ValidPassword) Reveal() string { return p.value }

// String never prints the secret.
func (p ValidPassword) String() string { return "********" }

// ParsePassword checks the length policy.
func ParsePassword(raw string) (ValidPassword, error) {
	if err := validation.Validate(raw, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)); err != nil {
		return ValidPassword{}, errs.ValidationField("password", err.Error())
	}
	return ValidPassword{value: raw}, nil
}

// EmailAddress is a normalized, syntactically valid e-mail.
type EmailAddress struct{ value string }

// String returns the address.
func (e EmailAddress) String() string { return e.value }

// ParseEmail trims, lowercases and validates raw.
func ParseEmail(raw string) (EmailAddress, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if err := validation.Validate(v, validation.Required, validation.Length(3, emailMaxLen), is.Email); err != nil {
		return EmailAddress{}, errs.ValidationField("email", err.Error())
	}
	return EmailAddress{value: v}, nil
}

// NonExistingIdentifier is an e-mail that was checked against the store and found free.
type NonExistingIdentifier struct{ value string }

// String returns the identifier value.
func (n NonExistingIdentifier) String() string { return n.value }

// ClaimIdentifier turns an e-mail into a NonExistingIdentifier when the store reported it unused.
func ClaimIdentifier(email EmailAddress, exists bool) (NonExistingIdentifier, error) {
	if email.value == "" {
		return NonExistingIdentifier{}, errs.ValidationField("email", "cannot be blank")
	}
	if exists {
		return NonExistingIdentifier{}, errs.Duplicate("email", "email already exists")
	}
	return NonExistingIdentifier{value: email.value}, nil
}

// SignUpInput is the raw sign-up form.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Validate checks the name fields; e-mail and password are checked by their parsers.
func (in SignUpInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(nameMinLen, nameMaxLen)),
		validation.Field(&in.LastName, validation.Required, validation.Length(nameMinLen, nameMaxLen)),
	)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validation.Errors); ok {
		for _, field := range []string{"FirstName", "LastName"} {
			if fe, ok := fieldErrs[field]; ok {
				return errs.ValidationField(jsonFieldName(field), fe.Error())
			}
		}
	}
	return errs.Validation(err.Error())
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
