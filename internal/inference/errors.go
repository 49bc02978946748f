package inference

import (
	"errors"
	"fmt"
)

// ErrorKind names why an upstream call could not produce a result.
type ErrorKind string

const (
	ErrRetryExhausted ErrorKind = "retry_exhausted"
	ErrRateLimited    ErrorKind = "rate_limited"
	ErrQuotaExhausted ErrorKind = "quota_exhausted"
	ErrRejected       ErrorKind = "upstream_rejected"
	ErrTransport      ErrorKind = "transport"
	ErrProtocol       ErrorKind = "protocol"
)

// UpstreamError is returned for every failed provider interaction.
// Detail holds upstream text for logs; it is never meant for end users.
type UpstreamError struct {
	Capability string
	Kind       ErrorKind
	StatusCode int
	Attempts   int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream %s (status %d, %d attempt(s)): %s", e.Capability, e.Kind, e.StatusCode, e.Attempts, e.Detail)
	}
	return fmt.Sprintf("%s upstream %s (%d attempt(s)): %s", e.Capability, e.Kind, e.Attempts, e.Detail)
}

// KindOf extracts the ErrorKind from err, or "" when err is not an UpstreamError.
func KindOf(err error) ErrorKind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// IsKind reports whether err wraps an UpstreamError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
