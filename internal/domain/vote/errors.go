package vote

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a voting failure.
type Kind string

const (
	KindInvalidInput         Kind = "InvalidInput"
	KindAlreadyVoted         Kind = "AlreadyVoted"
	KindUnknownCandidate     Kind = "UnknownCandidate"
	KindEvidenceWriteFailure Kind = "EvidenceWriteFailure"
	KindInternal             Kind = "Internal"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrAlreadyVoted         = &Error{Kind: KindAlreadyVoted}
	ErrUnknownCandidate     = &Error{Kind: KindUnknownCandidate}
	ErrEvidenceWriteFailure = &Error{Kind: KindEvidenceWriteFailure}
	ErrInternal             = &Error{Kind: KindInternal}
)

// Error is the only error type CastVote returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// HTTPStatus maps the kind onto the status code used by the HTTP binding.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindAlreadyVoted:
		return http.StatusForbidden
	case KindUnknownCandidate:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// AsError extracts a *Error, wrapping unknown errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	return newError(KindInternal, "erro interno", err)
}
