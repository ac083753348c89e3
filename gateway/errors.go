package gateway

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/paramed-portal/internal/errors"
)

// ErrorKind classifies failures surfaced to Login callers and collaborators.
type ErrorKind int

const (
	KindUnknown            ErrorKind = iota // Unrecognised status or response shape
	KindInvalidCredentials                  // 401/403: the credentials or token were refused
	KindNetwork                             // Transport failure or timeout, nothing usable came back
	KindServer                              // 5xx from the API
)

var (
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	ErrNetwork            = apperrors.ErrNetwork
	ErrServer             = apperrors.ErrUpstream
	ErrUnknown            = apperrors.ErrUnexpected

	// ErrNotSignedIn is returned by authenticated calls made without a session
	ErrNotSignedIn = errors.New("not signed in")
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	}
	return ErrUnknown
}

// AuthError is the error descriptor returned by the gateway. Message is safe to show to the user.
type AuthError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // Server supplied message when available
	Err     error  // Underlying cause, if any
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so errors.Is(err, gateway.ErrNetwork) works.
func (e *AuthError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf extracts the kind of a gateway error, KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsAuthFailure reports whether status is an explicit authentication failure.
func IsAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func networkError(err error) *AuthError {
	return &AuthError{
		Kind:    KindNetwork,
		Message: "Unable to reach the server, please try again",
		Err:     err,
	}
}

func unexpectedResponse(status int, err error) *AuthError {
	return &AuthError{
		Kind:    KindUnknown,
		Status:  status,
		Message: "Unexpected response from the server",
		Err:     err,
	}
}

// errorFromResponse maps a non-2xx response onto the taxonomy.
func errorFromResponse(status int, body []byte) *AuthError {
	msg := decodeErrorMessage(body)
	switch {
	case IsAuthFailure(status):
		if msg == "" {
			msg = "Invalid credentials"
		}
		return &AuthError{Kind: KindInvalidCredentials, Status: status, Message: msg}
	case status >= http.StatusInternalServerError:
		if msg == "" {
			msg = "The server is unavailable, please try again later"
		}
		return &AuthError{Kind: KindServer, Status: status, Message: msg}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &AuthError{Kind: KindUnknown, Status: status, Message: msg}
}
