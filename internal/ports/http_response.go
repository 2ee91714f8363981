package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/steambuddy/steambuddy/internal/apiresult"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/reporting"
)

// processing maps to 202 Accepted: the client should poll until it gets another status
var httpStatusCodes = map[apiresult.Status]int{
	apiresult.StatusOK:            http.StatusOK,
	apiresult.StatusCreated:       http.StatusCreated,
	apiresult.StatusProcessing:    http.StatusAccepted,
	apiresult.StatusNoContent:     http.StatusNoContent,
	apiresult.StatusForbidden:     http.StatusForbidden,
	apiresult.StatusNotFound:      http.StatusNotFound,
	apiresult.StatusBadRequest:    http.StatusBadRequest,
	apiresult.StatusConflict:      http.StatusConflict,
	apiresult.StatusCannotProcess: http.StatusUnprocessableEntity,
	apiresult.StatusInternalError: http.StatusInternalServerError,
}

func HTTPStatusCode(status apiresult.Status) int {
	code, ok := httpStatusCodes[status]
	if !ok {
		panic(fmt.Sprintf("no http status code for api result status '%s'", status))
	}
	return code
}

type statusResponse struct {
	Status  apiresult.Status `json:"status"`
	Message string           `json:"message"`
}

// Entities are written with their representer, everything else as a status and message
func makeAPIResultResponse(result apiresult.APIResult) ([]byte, error) {
	switch message := result.Message().(type) {
	case domain.Player:
		return json.Marshal(newPlayerRepresentation(message))
	case []domain.Player:
		return json.Marshal(newPlayersListRepresentation(message))
	case string:
		return json.Marshal(statusResponse{Status: result.Status(), Message: message})
	}
	return nil, fmt.Errorf("unsupported api result message type %T", result.Message())
}

func writeAPIResult(ctx context.Context, w http.ResponseWriter, result apiresult.APIResult) {
	response, err := makeAPIResultResponse(result)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal api result: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"internal_error","message":"Internal server error"}`))
		return
	}

	statusCode := HTTPStatusCode(result.Status())
	if statusCode == http.StatusNoContent {
		// 204 responses carry no body
		w.WriteHeader(statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response)
}

// 429 is not one of the api result statuses, the body reuses the forbidden status
func writeRateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"status":"forbidden","message":"Rate limit exceeded"}`))
}
