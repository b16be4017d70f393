package llm

import (
	"errors"
	"fmt"
)

// Kind discriminates provider failures.
type Kind string

const (
	KindUnknown   Kind = "llm_error"
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindNetwork   Kind = "network"
)

// ErrNotConfigured is returned when provider, model or API key is missing.
var ErrNotConfigured = errors.New("llm not configured: provider, model and api key are required")

// Error is a provider failure normalized by an adapter.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	label := "llm error"
	switch e.Kind {
	case KindAuth:
		label = "llm auth error"
	case KindRateLimit:
		label = "llm rate limit error"
	case KindNetwork:
		label = "llm network error"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", label, e.Provider)
	}
	return fmt.Sprintf("%s (%s): %v", label, e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps an unclassified provider failure.
func NewError(provider string, err error) error {
	return &Error{Kind: KindUnknown, Provider: provider, Err: err}
}

// NewAuthError wraps an authentication or authorization failure (HTTP 401/403).
func NewAuthError(provider string, err error) error {
	return &Error{Kind: KindAuth, Provider: provider, Err: err}
}

// NewRateLimitError wraps a throttling failure (HTTP 429).
func NewRateLimitError(provider string, err error) error {
	return &Error{Kind: KindRateLimit, Provider: provider, Err: err}
}

// NewNetworkError wraps a connectivity failure.
func NewNetworkError(provider string, err error) error {
	return &Error{Kind: KindNetwork, Provider: provider, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that did
// not come from an adapter report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ProviderOf returns the provider name carried by err, if any.
func ProviderOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Provider
	}
	return ""
}

// IsRetryable reports whether err is transient (rate limit or network).
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindRateLimit || e.Kind == KindNetwork
}

// FromStatus maps an HTTP status code onto the taxonomy. Adapters call it
// after extracting the status from their SDK's error type.
func FromStatus(provider string, status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return NewAuthError(provider, err)
	case status == 429:
		return NewRateLimitError(provider, err)
	default:
		return NewError(provider, err)
	}
}
