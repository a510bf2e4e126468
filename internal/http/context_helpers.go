package httpx

import (
	"context"

	"github.com/target/multiauth/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the verified session.
func SetSessionInContext(ctx context.Context, session service.VerifiedSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the verified session and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (service.VerifiedSession, bool) {
	session, ok := ctx.Value(sessionKey{}).(service.VerifiedSession)
	return session, ok
}
