package game

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotFound         = errors.New("no target available")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrValidation       = errors.New("validation failed")
	ErrStoreWriteFailed = errors.New("result store write failed")
	ErrUpstream         = errors.New("text generation failed")
)

// DomainError carries a taxonomy kind for the transport layer. Kind is one of
// the sentinels above so errors.Is keeps working through wrapping.
type DomainError struct {
	Kind      error
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "game error"
}

func (e *DomainError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func validationf(format string, args ...any) error {
	return &DomainError{Kind: ErrValidation, Code: "validation", Message: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error {
	return &DomainError{Kind: ErrNotFound, Code: "not_found", Message: msg, Retryable: true}
}

func profileNotFound(userID string, cause error) error {
	return &DomainError{Kind: ErrProfileNotFound, Code: "profile_not_found", Message: "profile not found for " + userID, Err: cause}
}

func upstream(msg string, cause error) error {
	return &DomainError{Kind: ErrUpstream, Code: "upstream", Message: msg, Retryable: true, Err: cause}
}

// Code returns the taxonomy code of err, or "internal".
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	}
	return "internal"
}
