package main

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrCredentialsNotConfigured = errors.New("Google Calendar tokens not found")
	ErrProvisionFailed          = errors.New("failed to create user document")
	ErrUpstreamFormat           = errors.New("Invalid response format from Google Places API")
)

// RequestError carries the HTTP status and the message exposed to the caller.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func badRequest(msg string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: msg}
}

// statusFor maps an operation error onto the status and message for the
// calendar endpoints. Anything unrecognised is an internal error and its
// details stay in the logs.
func statusFor(err error) (int, string) {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.Status, reqErr.Message
	case errors.Is(err, ErrUserNotFound):
		return http.StatusBadRequest, "User not found"
	case errors.Is(err, ErrCredentialsNotConfigured):
		return http.StatusBadRequest, "Google Calendar tokens not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
