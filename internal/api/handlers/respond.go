package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/adivish/vidtube-be/internal/apierr"
)

// apiResponse is the uniform success envelope returned by every endpoint.
type apiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// apiFailure is the uniform failure envelope.
type apiFailure struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// respond writes the success envelope with the given status code.
func respond(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError is the single boundary adapter converting service errors into
// the failure envelope. Unknown error kinds become a 500.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		message = apiErr.Message
	} else {
		log.Error().Err(err).Msg("Unhandled error at transport boundary")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(apiFailure{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	}); encErr != nil {
		log.Error().Err(encErr).Msg("Failed to encode error response")
	}
}
