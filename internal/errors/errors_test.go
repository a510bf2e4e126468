package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "account not found"},
			want: "account not found",
		},
		{
			name: "error with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "create account", Cause: errors.New("conn reset")},
			want: "create account: conn reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the cause through AppError")
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{name: "internal hides cause", err: Wrap(errors.New("pq: secret"), ErrCodeInternal, "insert"), want: MsgInternal},
		{name: "credential is uniform", err: &AppError{Code: ErrCodeInvalidCredential, Message: "no such email"}, want: MsgInvalidCredentials},
		{name: "duplicate keeps message", err: Duplicate("slug", "This name already exists"), want: "This name already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.PublicMessage(); got != tt.want {
				t.Errorf("PublicMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestAsInternal(t *testing.T) {
	dup := Duplicate("slug", "taken")
	if got := AsInternal(fmt.Errorf("ctx: %w", dup), "create"); !IsDuplicate(got) {
		t.Errorf("AsInternal should keep AppError codes, got %v", GetCode(got))
	}
	if got := AsInternal(errors.New("boom"), "create"); !IsInternal(got) {
		t.Errorf("AsInternal should wrap plain errors as internal, got %v", GetCode(got))
	}
	if AsInternal(nil, "create") != nil {
		t.Errorf("AsInternal(nil) should be nil")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{name: "invalid credential", err: InvalidCredential(), is: IsInvalidCredential},
		{name: "invalid token", err: InvalidToken(errors.New("exp")), is: IsInvalidToken},
		{name: "inconsistent", err: SessionInconsistentf("member %s", "m1"), is: IsSessionInconsistent},
		{name: "upstream", err: Upstream(errors.New("access_denied"), "oauth failed"), is: IsUpstream},
		{name: "not found", err: NotFoundf("workspace %q", "acme"), is: IsNotFound},
		{name: "validation", err: ValidationField("slug", "too short"), is: IsValidation},
		{name: "rate limited", err: RateLimited("slow down"), is: IsRateLimited},
		{name: "wrapped", err: fmt.Errorf("outer: %w", Internal("x")), is: IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.is(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}

	if IsNotFound(errors.New("plain")) {
		t.Errorf("plain errors must not match")
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("email", "bad")); got != "email" {
		t.Errorf("GetField() = %q, want email", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField() = %q, want empty", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: Validation("x"), want: http.StatusBadRequest},
		{err: Duplicate("slug", "x"), want: http.StatusBadRequest},
		{err: InvalidCredential(), want: http.StatusBadRequest},
		{err: InvalidToken(nil), want: http.StatusUnauthorized},
		{err: NotFound("x"), want: http.StatusNotFound},
		{err: RateLimited("x"), want: http.StatusTooManyRequests},
		{err: Upstream(nil, "x"), want: http.StatusBadGateway},
		{err: errors.New("plain"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
