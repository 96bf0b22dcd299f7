package faults

import (
	"errors"
	"fmt"
)

// Kind classifies portal failures so callers can decide between local
// recovery, retry affordances, and propagation.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput covers validation failures (empty rejection reason, page out
	// of range, no file selected). Recovered locally, no state mutation.
	KindInput
	// KindOutOfTurn marks an action by a signer other than the one currently
	// empowered to act. Rejected at the state-machine boundary.
	KindOutOfTurn
	// KindRender covers page raster and PDF decode failures.
	KindRender
	// KindExport covers compositing or flatten-output failures. In-memory
	// annotation state survives so the user can retry without re-drawing.
	KindExport
	// KindStorage covers collaborator I/O errors.
	KindStorage
)

// String returns the wire-stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "INPUT"
	case KindOutOfTurn:
		return "OUT_OF_TURN"
	case KindRender:
		return "RENDER_FAILURE"
	case KindExport:
		return "EXPORT_FAILURE"
	case KindStorage:
		return "STORAGE_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Recoverable reports whether a failure of this kind is retryable without
// data loss. Only a corrupt source document at open time is fatal for a
// session; that case is raised as KindRender with Fatal set.
func (k Kind) Recoverable() bool {
	return k != KindUnknown
}

// Error is a classified portal error. It carries enough context to log and
// to route to the right user-facing affordance.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Op         string `json:"op,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Fatal      bool   `json:"fatal,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind.String(), e.Op, e.Message)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two faults by kind so sentinel comparisons work:
// errors.Is(err, &faults.Error{Kind: faults.KindOutOfTurn}).
func (e *Error) Is(target error) bool {
	var fe *Error
	if !errors.As(target, &fe) {
		return false
	}
	return fe.Kind == e.Kind
}

// New creates a classified error without a wrapped cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// Input creates a user-input validation error.
func Input(op, format string, args ...any) *Error {
	return New(KindInput, op, format, args...)
}

// OutOfTurn creates the turn-enforcement error for the approval chain.
func OutOfTurn(op string, attempted, current int) *Error {
	return New(KindOutOfTurn, op, "signer order %d attempted to act while order %d holds the turn", attempted, current)
}

// KindOf extracts the Kind from any error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
