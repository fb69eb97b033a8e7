package huddle

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// Protocol Errors (from server error responses)
	ErrorUnknown ErrorCode = iota
	ErrorUnsupportedVersion
	ErrorUnauthorized
	ErrorInvalidMessage
	ErrorBadRequest
	ErrorChannelNotFound
	ErrorChannelExists
	ErrorRateLimited
	ErrorInternalServer

	// Client-side Errors
	ErrorAuthFailure
	ErrorIdentityLookup
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorSerialization
	ErrorForcedLogout
	ErrorStaleEvent
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorUnsupportedVersion:
		return "unsupported_version"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorBadRequest:
		return "bad_request"
	case ErrorChannelNotFound:
		return "channel_not_found"
	case ErrorChannelExists:
		return "channel_exists"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorAuthFailure:
		return "auth_failure"
	case ErrorIdentityLookup:
		return "identity_lookup_failure"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorForcedLogout:
		return "forced_logout"
	case ErrorStaleEvent:
		return "stale_event"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a protocol error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "unsupported_version":
		return ErrorUnsupportedVersion
	case "unauthorized":
		return ErrorUnauthorized
	case "invalid_message":
		return ErrorInvalidMessage
	case "bad_request":
		return ErrorBadRequest
	case "channel_not_found":
		return ErrorChannelNotFound
	case "channel_exists":
		return ErrorChannelExists
	case "rate_limited":
		return ErrorRateLimited
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// HuddleError is a structured error with code and context.
type HuddleError struct {
	Code          ErrorCode
	Message       string
	CorrelationID string // set when the server ties the error to a request
	Wrapped       error
}

// Error implements the error interface.
func (e *HuddleError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *HuddleError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *HuddleError) Is(target error) bool {
	t, ok := target.(*HuddleError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new HuddleError with the given code and message.
func NewError(code ErrorCode, message string) *HuddleError {
	return &HuddleError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a HuddleError.
func WrapError(code ErrorCode, message string, err error) *HuddleError {
	return &HuddleError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// FromProtocolError converts a protocol Error to HuddleError.
func FromProtocolError(e *Error) *HuddleError {
	if e == nil {
		return nil
	}
	return &HuddleError{
		Code:          ParseErrorCode(e.Code),
		Message:       e.Msg,
		CorrelationID: e.CorrelationID,
	}
}

// IsProtocolError checks if an error is a protocol error (from server).
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var he *HuddleError
	if !errors.As(err, &he) {
		return false
	}
	// Protocol errors are those that come from the server
	return he.Code >= ErrorUnsupportedVersion && he.Code <= ErrorInternalServer
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var he *HuddleError
	if !errors.As(err, &he) {
		return false
	}
	return he.Code == ErrorConnection || he.Code == ErrorDisconnected || he.Code == ErrorTimeout
}
