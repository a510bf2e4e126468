package oidc

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/target/multiauth/internal/ports"
	"golang.org/x/sync/singleflight"
)

// Factory builds a provider. OIDC factories perform network discovery, so
// the registry calls them lazily.
type Factory func(ctx context.Context) (ports.OAuthProvider, error)

// Registry resolves provider names to providers, building each one once.
// Concurrent first requests share a single discovery call; failures are not
// cached so a later request can retry.
type Registry struct {
	factories map[string]Factory
	logger    *slog.Logger

	mu    sync.RWMutex
	built map[string]ports.OAuthProvider
	group singleflight.Group
}

// NewRegistry returns a registry over factories.
func NewRegistry(factories map[string]Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: maps.Clone(factories),
		logger:    logger,
		built:     map[string]ports.OAuthProvider{},
	}
}

// Names lists the configured providers in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Provider returns the named provider, building it on first use.
func (r *Registry) Provider(ctx context.Context, name string) (ports.OAuthProvider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ports.ErrUnknownProvider, name)
	}

	r.mu.RLock()
	p, ok := r.built[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		existing, found := r.built[name]
		r.mu.RUnlock()
		if found {
			return existing, nil
		}
		// detached so one caller's cancellation does not fail the others
		built, buildErr := factory(context.WithoutCancel(ctx))
		if buildErr != nil {
			return nil, buildErr
		}
		r.mu.Lock()
		r.built[name] = built
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "oauth provider ready", "provider", name)
		return built, nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "oauth provider unavailable", "provider", name, "error", err)
		return nil, fmt.Errorf("init provider %s: %w", name, err)
	}
	return v.(ports.OAuthProvider), nil
}

var _ ports.ProviderRegistry = (*Registry)(nil)
