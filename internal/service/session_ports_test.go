package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/internal/adapters/token"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/mocks"
	fakes "github.com/target/multiauth/internal/mocks/auth"
	"go.uber.org/mock/gomock"
)

func newThrottledService(t *testing.T, throttle *mocks.MockLoginThrottle) (*SessionService, *fakes.MemoryIdentity) {
	t.Helper()
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)
	codec, err := token.NewCodec(signer, "multiauth-test")
	require.NoError(t, err)

	store := fakes.NewMemoryIdentity()
	store.SeedAccount("Alice", "Adams", "alice@example.com", "alice-password")
	return NewSessionService(SessionServiceOptions{Identity: store, Tokens: codec, Throttle: throttle}), store
}

func TestSessionService_LoginThrottleBlocksBeforeLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	throttle := mocks.NewMockLoginThrottle(ctrl)
	throttle.EXPECT().Allow(gomock.Any(), "alice@example.com").Return(false, nil)
	svc, _ := newThrottledService(t, throttle)

	_, err := svc.Login(t.Context(), ClientSession{}, LoginInput{Identifier: " Alice@Example.com ", Password: "alice-password"})

	require.Error(t, err)
	assert.True(t, errs.IsRateLimited(err))
}

func TestSessionService_LoginRecordsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	throttle := mocks.NewMockLoginThrottle(ctrl)
	gomock.InOrder(
		throttle.EXPECT().Allow(gomock.Any(), "alice@example.com").Return(true, nil),
		throttle.EXPECT().RecordFailure(gomock.Any(), "alice@example.com").Return(nil),
	)
	svc, _ := newThrottledService(t, throttle)

	_, err := svc.Login(t.Context(), ClientSession{}, LoginInput{Identifier: "alice@example.com", Password: "wrong-password"})

	require.Error(t, err)
	assert.True(t, errs.IsInvalidCredential(err))
}

func TestSessionService_LoginThrottleFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	throttle := mocks.NewMockLoginThrottle(ctrl)
	gomock.InOrder(
		throttle.EXPECT().Allow(gomock.Any(), "alice@example.com").Return(false, errors.New("redis down")),
		throttle.EXPECT().Reset(gomock.Any(), "alice@example.com").Return(errors.New("redis down")),
	)
	svc, _ := newThrottledService(t, throttle)

	tr, err := svc.Login(t.Context(), ClientSession{}, LoginInput{Identifier: "alice@example.com", Password: "alice-password"})

	require.NoError(t, err)
	assert.Len(t, tr.Auth, 1)
}

func TestSessionService_IssueFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	codec := mocks.NewMockTokenCodec(ctrl)
	codec.EXPECT().Issue(gomock.Any()).Return(domainauth.SignedCredential(""), errors.New("signer unavailable"))

	store := fakes.NewMemoryIdentity()
	store.SeedAccount("Alice", "Adams", "alice@example.com", "alice-password")
	svc := NewSessionService(SessionServiceOptions{Identity: store, Tokens: codec})

	_, err := svc.Login(t.Context(), ClientSession{}, LoginInput{Identifier: "alice@example.com", Password: "alice-password"})

	require.Error(t, err)
	assert.True(t, errs.IsInternal(err))
}
