package bootstrap

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/config"
	fakes "github.com/target/multiauth/internal/mocks/auth"
	"github.com/target/multiauth/internal/service"
)

func testServices(t *testing.T) ServiceContainer {
	t.Helper()
	codec, err := BuildTokenCodec(config.TokenConfig{
		Algorithm: config.TokenHS256,
		Secret:    testSecret,
		Issuer:    "multiauth",
	}, discardLogger())
	require.NoError(t, err)
	return ServiceContainer{
		Sessions: service.NewSessionService(service.SessionServiceOptions{
			Identity: fakes.NewMemoryIdentity(),
			Tokens:   codec,
			Logger:   discardLogger(),
		}),
	}
}

func TestBuildHTTPHandler(t *testing.T) {
	cfg := &config.AppConfig{
		Auth: config.AuthConfig{Cookie: config.CookieConfig{Secure: true}},
		HTTP: config.HTTPConfig{CSRFEnabled: true},
	}
	h := BuildHTTPHandler(HTTPHandlerConfig{
		Config:   cfg,
		Services: testServices(t),
		Logger:   discardLogger(),
	})

	t.Run("health without backends", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("csrf guards posts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign-in", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("oauth routes absent without providers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/providers", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated index redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, service.RedirectSignIn, rec.Header().Get("Location"))
	})
}

func TestHealthChecks(t *testing.T) {
	assert.Empty(t, healthChecks(nil, nil))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHTTPServer(config.HTTPConfig{Addr: ln.Addr().String()}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeParams{Server: srv, Listener: ln, ShutdownTimeout: time.Second, Logger: discardLogger()})
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_RequiresServer(t *testing.T) {
	require.Error(t, Serve(t.Context(), ServeParams{}))
}
