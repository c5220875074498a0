package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Message severities reported by the rating service.
const (
	SeveritySystem  = 1
	SeverityRequest = 2
)

var (
	// ErrMiscalculation indicates apportioned details did not reconcile to
	// the reported line total. This is a data-integrity bug, never retried.
	ErrMiscalculation = errors.New("tax: taxation miscalculation")
	// ErrServiceUnavailable is returned in strict mode when every attempt
	// against the rating service failed.
	ErrServiceUnavailable = errors.New("tax: rating service unavailable")
)

// SystemError is a severity-1 message: a failure inside the rating service
// itself, e.g. its backend database being unreachable.
type SystemError struct {
	Code int
	Info string
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("rating system error %d: %s", e.Code, e.Info)
}

// RequestError is a severity-2 message: the service rejected our input,
// e.g. an address it could not resolve.
type RequestError struct {
	Code int
	Info string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("rating request error %d: %s", e.Code, e.Info)
}

// MessageError carries a response message with an unclassified severity.
type MessageError struct {
	Severity int
	Code     int
	Info     string
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("rating error (severity %d) %d: %s", e.Severity, e.Code, e.Info)
}

// buildMessageError maps a severity/code pair onto the typed error taxonomy.
func buildMessageError(severity, code int, info string) error {
	switch severity {
	case SeveritySystem:
		return &SystemError{Code: code, Info: info}
	case SeverityRequest:
		return &RequestError{Code: code, Info: info}
	default:
		return &MessageError{Severity: severity, Code: code, Info: info}
	}
}

// MiscalculationError reports the line whose apportioned details failed to
// reconcile with the service's reported total.
type MiscalculationError struct {
	LineID   string
	Computed decimal.Decimal
	Reported decimal.Decimal
}

func (e *MiscalculationError) Error() string {
	return fmt.Sprintf("taxation miscalculation on line %s: details sum to %s, which doesn't match given sum of %s",
		e.LineID, e.Computed, e.Reported)
}

func (e *MiscalculationError) Unwrap() error {
	return ErrMiscalculation
}
