package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("session token expired")
	ErrNoSession        = fmt.Errorf("no saved session")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Backend errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrChannelNotFound    = fmt.Errorf("channel not found")
	ErrChannelExists      = fmt.Errorf("channel already exists")
	ErrStreamClosed       = fmt.Errorf("event stream closed")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrInvalidChannelURL = fmt.Errorf("invalid channel URL or handle")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidFlag       = fmt.Errorf("invalid flag value")
)
