package market

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of fetch failure classes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// FetchError is the error type providers return so failures can be classified.
type FetchError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindRateLimited && e.Detail == "":
		return "rate limited"
	case e.Err != nil && e.Detail == "":
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Detail, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Detail)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind, so errors.Is(err, ErrRateLimited) works for any rate-limit error.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t == ErrRateLimited && e.Kind == KindRateLimited
}

// ErrRateLimited signals the upstream asked us to slow down.
var ErrRateLimited = &FetchError{Kind: KindRateLimited}

// NetworkError wraps a transport-level failure.
func NetworkError(detail string, err error) error {
	return &FetchError{Kind: KindNetwork, Detail: detail, Err: err}
}

// UnknownError wraps any failure that is neither transport nor rate limiting.
func UnknownError(detail string, err error) error {
	return &FetchError{Kind: KindUnknown, Detail: detail, Err: err}
}

// RateLimitedError annotates a rate-limit response with upstream detail.
func RateLimitedError(detail string) error {
	return &FetchError{Kind: KindRateLimited, Detail: detail}
}

// KindOf classifies err. Anything that is not a *FetchError is KindUnknown.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
