// Package domainerrors defines the coded error type that crosses layer
// boundaries. Infrastructure wraps its failures into a coded error at the
// service edge; transport translates codes into HTTP statuses. Services and
// handlers never match on error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code identifies an error class with a stable wire value.
type Code string

const (
	// CodeInvalidCredentials means the identity API rejected the supplied
	// password or identity token.
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodeConflict maps identity API 409 responses (duplicate registration paths).
	CodeConflict Code = "conflict"
	// CodeValidation carries one or more field-level validation messages.
	CodeValidation Code = "validation_error"
	// CodeUpstream means the identity API answered with an unexpected status.
	CodeUpstream Code = "upstream_error"
	// CodeNetworkUnavailable means the identity API could not be reached at
	// the transport level. See Unreachable for the misconfiguration sub-flag.
	CodeNetworkUnavailable Code = "network_unavailable"
	// CodeDecode means a bearer token could not be parsed for its claims.
	CodeDecode Code = "decode_error"
	// CodeInvalidSession means no session exists for the presented session ID.
	CodeInvalidSession Code = "invalid_session"
	// CodeBadRequest covers malformed transport input (bad JSON and the like).
	CodeBadRequest Code = "bad_request"
	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is the concrete coded error. Callers should construct it through
// New/Newf/Wrap rather than literal structs so the invariants hold.
type Error struct {
	Code    Code
	Message string
	// ValidationMessages holds per-field messages for CodeValidation errors.
	ValidationMessages []string
	// APIUnreachable marks a CodeNetworkUnavailable error whose cause looks
	// like a misconfigured or absent identity API (connection refused, DNS
	// failure) rather than a transient network blip.
	APIUnreachable bool

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	if len(e.ValidationMessages) > 0 {
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.ValidationMessages, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a static message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Unwrap for logging; transport only ever exposes
// the code and message.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Validation builds a CodeValidation error carrying field messages verbatim.
func Validation(messages ...string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", ValidationMessages: messages}
}

// Unreachable builds a CodeNetworkUnavailable error flagged as "API
// unreachable", used to produce actionable diagnostics for misconfigured
// identity API URLs.
func Unreachable(cause error, message string) *Error {
	return &Error{Code: CodeNetworkUnavailable, Message: message, APIUnreachable: true, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for errors that never passed through this package.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// IsAPIUnreachable reports whether err is a network error flagged as an
// unreachable identity API.
func IsAPIUnreachable(err error) bool {
	var coded *Error
	return errors.As(err, &coded) && coded.APIUnreachable
}

// Messages returns the validation messages attached to err, if any.
func Messages(err error) []string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.ValidationMessages
	}
	return nil
}

// ToHTTPStatus maps an error code to the status the gateway answers with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredentials, CodeInvalidSession:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeBadRequest, CodeDecode:
		return http.StatusBadRequest
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeNetworkUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
