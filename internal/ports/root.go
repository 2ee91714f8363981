package ports

import (
	"fmt"
	"net/http"

	"github.com/steambuddy/steambuddy/internal/apiresult"
)

func MakeRootHandler(environment string) http.HandlerFunc {
	message := fmt.Sprintf("SteamBuddy API v1 at /api/v1/ in %s mode", environment)
	return buildMetricsMiddleware("root")(func(w http.ResponseWriter, r *http.Request) {
		// The pattern "GET /" matches every unrouted path
		if r.URL.Path != "/" {
			writeAPIResult(r.Context(), w, apiresult.MustAPIResult(apiresult.StatusNotFound, "Not found"))
			return
		}
		writeAPIResult(r.Context(), w, apiresult.MustAPIResult(apiresult.StatusOK, message))
	})
}
