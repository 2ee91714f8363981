package ports_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/steambuddy/steambuddy/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestNewDomainSuffixes(t *testing.T) {
	t.Parallel()

	_, err := ports.NewDomainSuffixes("steambuddy.app", "steambuddy-web.pages.dev")
	require.NoError(t, err)

	_, err = ports.NewDomainSuffixes()
	require.NoError(t, err)

	for _, invalid := range []string{"", ".steambuddy.app", "https://steambuddy.app"} {
		_, err := ports.NewDomainSuffixes("steambuddy.app", invalid)
		require.Error(t, err, invalid)
	}
}

func TestDomainSuffixesAllows(t *testing.T) {
	t.Parallel()

	allowedOrigins, err := ports.NewDomainSuffixes("steambuddy.app", "steambuddy-web.pages.dev")
	require.NoError(t, err)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{origin: "https://steambuddy.app", allowed: true},
		{origin: "https://www.steambuddy.app", allowed: true},
		{origin: "https://53bcd591.steambuddy-web.pages.dev", allowed: true},
		{origin: "https://steambuddy-web.pages.dev", allowed: true},

		{origin: "", allowed: false},
		{origin: "steambuddy.app", allowed: false},
		{origin: "http://steambuddy.app", allowed: false},
		{origin: "https://evilsteambuddy.app", allowed: false},
		{origin: "https://steambuddy.app.evil.com", allowed: false},
		{origin: "https://steambuddy.app/path", allowed: false},
		{origin: "https://user@steambuddy.app", allowed: false},
		{origin: "https://pages.dev", allowed: false},
		{origin: "https://example.com", allowed: false},
	}

	for _, c := range cases {
		t.Run(c.origin, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.allowed, allowedOrigins.Allows(c.origin))
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	allowedOrigins, err := ports.NewDomainSuffixes("steambuddy.app")
	require.NoError(t, err)

	handler := ports.BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	serve := func(method string, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/v1/players/76561198012078200", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	t.Run("allowed request", func(t *testing.T) {
		t.Parallel()

		w := serve(http.MethodPost, "https://www.steambuddy.app")
		require.Equal(t, http.StatusTeapot, w.Code)
		require.Equal(t, "https://www.steambuddy.app", w.Header().Get("Access-Control-Allow-Origin"))
		require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("allowed preflight", func(t *testing.T) {
		t.Parallel()

		w := serve(http.MethodOptions, "https://steambuddy.app")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://steambuddy.app", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET,POST", w.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, ports.CORS_MAX_AGE_SECONDS, w.Header().Get("Access-Control-Max-Age"))
	})

	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		t.Run("disallowed origin "+method, func(t *testing.T) {
			t.Parallel()

			w := serve(method, "https://example.com")
			require.Equal(t, http.StatusTeapot, w.Code)
			require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("no origin", func(t *testing.T) {
		t.Parallel()

		w := serve(http.MethodGet, "")
		require.Equal(t, http.StatusTeapot, w.Code)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight handler", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/players", nil)
		req.Header.Set("Origin", "https://steambuddy.app")
		w := httptest.NewRecorder()
		ports.BuildCORSHandler(allowedOrigins)(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://steambuddy.app", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
