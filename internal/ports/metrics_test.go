package ports

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("passes the response through", func(t *testing.T) {
		t.Parallel()

		handler := buildMetricsMiddleware("test")(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte("body"))
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/players/76561198012078200", nil))

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Equal(t, "body", w.Body.String())
	})

	t.Run("records the status code", func(t *testing.T) {
		t.Parallel()

		recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		recorder.WriteHeader(http.StatusNotFound)
		require.Equal(t, http.StatusNotFound, recorder.statusCode)
	})
}
