package types

import (
	"fmt"
	"log/slog"
)

// ErrorKind classifies a billcore failure by its recovery behavior.
// The CLI boundary maps each kind to an exit code.
type ErrorKind string

const (
	// KindInputValidation rejects tariff, customer, or usage data that
	// violates a DTO invariant. Fatal to the affected entity only.
	KindInputValidation ErrorKind = "input_validation"
	// KindInconsistency is e.g. a usage step that differs from the
	// customer's billing cadence. Fatal to the computation.
	KindInconsistency ErrorKind = "inconsistency"
	// KindMissingData is a gap no strategy could repair.
	KindMissingData ErrorKind = "missing_data"
	// KindZoneUnknown is an unrecognized IANA timezone id.
	KindZoneUnknown ErrorKind = "zone_unknown"
	// KindCancelled is returned when the cooperative cancellation token
	// fires mid-computation.
	KindCancelled ErrorKind = "cancelled"
	// KindNumericOverflow should be unreachable with fixed-precision
	// decimal arithmetic; reserved for defensive checks.
	KindNumericOverflow ErrorKind = "numeric_overflow"
	// KindInternal covers anything else.
	KindInternal ErrorKind = "internal"
)

// Error is billcore's structured error type. It wraps an underlying cause
// and tags it with the ErrorKind that determines recovery/exit behavior.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// LogAttr renders the error as a structured slog attribute group.
func (e *Error) LogAttr() slog.Attr {
	attrs := []any{slog.String("kind", string(e.Kind)), slog.String("message", e.Message)}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("cause", e.Err))
	}
	return slog.Group("error", attrs...)
}
