// Package errs defines the sentinel error kinds shared across the runtime.
package errs

import "errors"

// Kind classifies an error for the purposes of retry policy, user-facing
// messaging, and telemetry tagging.
type Kind string

const (
	KindConfig             Kind = "config"
	KindTool               Kind = "tool"
	KindProviderNetwork    Kind = "provider_network"
	KindProviderAuth       Kind = "provider_auth"
	KindProviderRateLimit  Kind = "provider_rate_limit"
	KindProviderBadRequest Kind = "provider_bad_request"
	KindProviderAPI        Kind = "provider_api"
	KindStream             Kind = "stream"
	KindSerialization      Kind = "serialization"
	KindCancelled          Kind = "cancelled_by_user"
	KindMaxIterations      Kind = "max_iterations_exceeded"
	KindApprovalUnavail    Kind = "approval_unavailable"
	KindSandboxSetup       Kind = "sandbox_setup_failed"
	KindCommandTimedOut    Kind = "command_timed_out"
	KindRestricted         Kind = "restricted"
	KindUnknown            Kind = "unknown"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// classification without string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a classified error.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, or KindUnknown if err isn't one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the error's kind is generally worth retrying.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindProviderNetwork, KindProviderRateLimit, KindProviderAPI:
		return true
	default:
		return false
	}
}
