package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"smacross/internal/errs"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}
	return nil
}

func setErrorResponse(statusCode int, message string, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(response{Status: statusError, Message: message})
}

// statusFor maps an error kind to the HTTP status returned to callers.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.InvalidParameter, errs.InvalidRange, errs.AlreadyRunning, errs.InsufficientData:
		return http.StatusBadRequest
	case errs.UpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
