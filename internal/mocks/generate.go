// Package mocks provides gomock implementations of the session core ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and checked in so tests build without codegen.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	accounts := mocks.NewMockAccountStore(ctrl)
//	accounts.EXPECT().GetByID(gomock.Any(), gomock.Nil(), "acc-1").Return(acc, nil)
package mocks

// Persistence ports consumed by IdentityService.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=account_store_mock.go github.com/target/multiauth/internal/ports AccountStore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=workspace_store_mock.go github.com/target/multiauth/internal/ports WorkspaceStore

// Credential ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=password_hasher_mock.go github.com/target/multiauth/internal/ports PasswordHasher
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_codec_mock.go github.com/target/multiauth/internal/ports TokenCodec
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=login_throttle_mock.go github.com/target/multiauth/internal/ports LoginThrottle

// OAuth ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=oauth_provider_mock.go github.com/target/multiauth/internal/ports OAuthProvider
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=provider_registry_mock.go github.com/target/multiauth/internal/ports ProviderRegistry
