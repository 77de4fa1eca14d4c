// Package platformerr defines the error kinds the gateway and dispatcher
// use to map a failure to a transport status without string matching.
package platformerr

import (
	"errors"
	"fmt"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// Kind classifies why an operation failed, independent of its message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidIntent
	KindUnauthorized
	KindNotFound
	KindInsufficientFunds
	KindFeeNonConvergent
	KindChainSubmitRejected
	KindChainIndexerUnavailable
	KindSecretStoreUnavailable
	KindIntegrityViolation
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIntent:
		return "invalid-intent"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not-found"
	case KindInsufficientFunds:
		return "insufficient-funds"
	case KindFeeNonConvergent:
		return "fee-non-convergent"
	case KindChainSubmitRejected:
		return "chain-submit-rejected"
	case KindChainIndexerUnavailable:
		return "chain-indexer-unavailable"
	case KindSecretStoreUnavailable:
		return "secret-store-unavailable"
	case KindIntegrityViolation:
		return "integrity-violation"
	case KindRateLimited:
		return "rate-limited"
	default:
		return "unknown"
	}
}

// Retryable reports whether the handler should retry this kind once before
// surfacing it.
func (k Kind) Retryable() bool {
	return k == KindChainIndexerUnavailable || k == KindSecretStoreUnavailable
}

// Error is a platform error tagged with a Kind and a short user-visible
// message; internal detail stays in the wrapped error and never reaches the
// response body.
type Error struct {
	Kind    Kind
	Field   string // offending field name, for validation-style messages
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a platform error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid builds an invalid-intent error naming the offending field.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindInvalidIntent, Field: field, Message: message}
}

// KindOf classifies err, translating the root connector package's sentinel
// errors into platform Kinds and defaulting to KindUnknown otherwise.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, connector.ErrNotFound):
		return KindNotFound
	case errors.Is(err, connector.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, connector.ErrTimeout):
		return KindChainIndexerUnavailable
	case errors.Is(err, connector.ErrInvalidAddress),
		errors.Is(err, connector.ErrInvalidUnit),
		errors.Is(err, connector.ErrInvalidInput):
		return KindInvalidIntent
	case errors.Is(err, connector.ErrTxSubmissionFailed),
		errors.Is(err, connector.ErrEvaluationFailed),
		errors.Is(err, connector.ErrBadInputs),
		errors.Is(err, connector.ErrValueNotConserved),
		errors.Is(err, connector.ErrTxTooLarge):
		return KindChainSubmitRejected
	case errors.Is(err, connector.ErrProviderInternal):
		return KindChainIndexerUnavailable
	default:
		return KindUnknown
	}
}

// HTTPStatus maps a Kind to one of the gateway's closed set of status codes
// (200, 202, 400, 401/403, 429, 500) — invalid-intent and not-found map to
// 400; every kind other than those, unauthorized and rate-limited surfaces
// as 500, since the gateway does not
// distinguish finer-grained internal failure reasons in its response code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidIntent, KindNotFound:
		return 400
	case KindUnauthorized:
		return 401
	case KindRateLimited:
		return 429
	default:
		return 500
	}
}
