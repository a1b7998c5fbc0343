package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/ytsubs/internal/shared"
)

// APIError is a non-2xx response from the backend.
//
// The backend answers errors with {"status":"error","message":...,"error":...};
// Message and Detail carry those fields when present.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%v: %d %s", shared.ErrAPIRequest, e.StatusCode, msg)
}

// Unwrap maps well-known statuses onto the shared sentinels.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrChannelNotFound)
	case http.StatusConflict:
		errs = append(errs, shared.ErrChannelExists)
	case http.StatusServiceUnavailable:
		errs = append(errs, shared.ErrServiceUnavailable)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		errs = append(errs, shared.ErrTimeout)
	}
	return errs
}

// newAPIError decodes an error body, tolerating non-JSON payloads.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Detail = payload.Error
		if apiErr.Detail == "" {
			apiErr.Detail = payload.Detail
		}
	}
	return apiErr
}

// AsAPIError extracts an [*APIError] from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
