// Package resilience provides the failure taxonomy and retry policy shared
// by all provider fetchers.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (429, 5xx, network
// timeout). Retrying any other failure is a policy violation.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ProviderFailure is the typed outcome of an exhausted or non-retryable
// provider call. It is fatal only to that provider, never to the lookup.
type ProviderFailure struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider unavailable (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: provider unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderFailure) Unwrap() error { return e.Err }

// NewProviderFailure builds a ProviderFailure for the named provider.
func NewProviderFailure(provider string, statusCode int, err error) *ProviderFailure {
	return &ProviderFailure{Provider: provider, StatusCode: statusCode, Err: err}
}

// PaginationAbort marks a pagination run that failed partway. Accumulated
// pages are discarded: incomplete financial/legal data is worse than none.
type PaginationAbort struct {
	Endpoint string
	Page     int
	Err      error
}

func (e *PaginationAbort) Error() string {
	return fmt.Sprintf("pagination aborted at %s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *PaginationAbort) Unwrap() error { return e.Err }

// NormalizationFailure records a provider whose payload could not be mapped
// into the canonical schema. The provider's contribution is simply absent
// from consolidation.
type NormalizationFailure struct {
	Provider string
	Err      error
}

func (e *NormalizationFailure) Error() string {
	return fmt.Sprintf("%s: normalization failed: %v", e.Provider, e.Err)
}

func (e *NormalizationFailure) Unwrap() error { return e.Err }

// ErrAllProvidersFailed is the only condition surfaced to the user as a
// whole-lookup "no data available".
var ErrAllProvidersFailed = errors.New("all providers failed")

// IsTransient reports whether err (or anything in its chain) is retryable:
// an explicit TransientError, a network timeout, or a connection-level
// failure pattern.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped client errors lose their type; match on message.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRetryableStatus reports whether an HTTP status should trigger a retry.
// Only 429 among the 4xx family qualifies.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
