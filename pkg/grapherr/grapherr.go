// Package grapherr defines the shared error taxonomy used by the filter
// planner, subgraph resolver, and deletion coordinator (spec §10.2). Each
// leaf package (pkg/entity, pkg/ontology, pkg/authz) keeps its own sentinel
// errors for package-local conditions; grapherr.Error is the wrapper those
// cross-cutting components use so a caller one layer up (an RPC handler, a
// CLI) can switch on Kind without importing every leaf package's error
// variables.
package grapherr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Internal is an unclassified failure — a bug or an invariant violation.
	Internal Kind = iota

	// Unauthorized means the actor's policies do not permit the requested
	// action on the resource.
	Unauthorized

	// NotFound means the named resource does not exist. Per spec, deletion
	// treats this as success rather than an error; other callers should
	// surface it.
	NotFound

	// ValidationFailed means a property tree or type definition failed
	// schema validation.
	ValidationFailed

	// AlreadyExists means an ontology element or entity uuid collided with
	// an existing one under a conflict policy that forbids overwrite.
	AlreadyExists

	// InvalidDecisionTime means a caller-supplied decision time precedes an
	// entity's, or an ontology element's, current edition.
	InvalidDecisionTime

	// InvalidPath means a filter Path expression does not resolve against
	// the resource kind it was compiled for.
	InvalidPath

	// IncompatibleTypes means a filter operator was applied to operand
	// types it cannot compare (e.g. Overlap against a scalar path).
	IncompatibleTypes

	// UnsupportedOperator means a filter operator is not defined for the
	// path's resolved column type.
	UnsupportedOperator

	// BackendError means the underlying Postgres pool returned an error
	// that the caller did not cause (lost connection, deadlock, syntax
	// bug in a generated plan).
	BackendError
)

// String renders the kind for logging.
func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case ValidationFailed:
		return "validation_failed"
	case AlreadyExists:
		return "already_exists"
	case InvalidDecisionTime:
		return "invalid_decision_time"
	case InvalidPath:
		return "invalid_path"
	case IncompatibleTypes:
		return "incompatible_types"
	case UnsupportedOperator:
		return "unsupported_operator"
	case BackendError:
		return "backend_error"
	default:
		return "internal"
	}
}

// Error is a classified, context-chained failure. Stages wrap one another
// with [Wrap], building a "planner: compile filter: invalid path" style
// message while preserving the original Kind and a correlation id for
// cross-referencing a trace span.
type Error struct {
	Kind          Kind
	Msg           string
	CorrelationID string
	Retriable     bool
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.cause.Error())
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a root Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap adds a context frame ("stage: detail") around cause, preserving
// cause's Kind when cause is itself a *Error, or classifying it as
// BackendError otherwise (the typical shape for a raw pgx error bubbling up
// from a store).
func Wrap(cause error, context string) *Error {
	if cause == nil {
		return nil
	}
	var ge *Error
	if errors.As(cause, &ge) {
		return &Error{
			Kind:          ge.Kind,
			Msg:           context,
			CorrelationID: ge.CorrelationID,
			Retriable:     ge.Retriable,
			cause:         ge,
		}
	}
	return &Error{Kind: BackendError, Msg: context, cause: cause}
}

// WithCorrelationID returns a copy of e carrying the given correlation id,
// normally the trace id of the span that observed the failure.
func (e *Error) WithCorrelationID(id string) *Error {
	cp := *e
	cp.CorrelationID = id
	return &cp
}

// Is reports whether target has the same Kind as e, so callers can write
// errors.Is(err, grapherr.New(grapherr.NotFound, "")) style checks, but the
// idiomatic call site uses [KindOf] and a switch instead.
func (e *Error) Is(target error) bool {
	var ge *Error
	if !errors.As(target, &ge) {
		return false
	}
	return e.Kind == ge.Kind
}

// KindOf extracts the Kind from err, defaulting to Internal when err is not
// a *Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return Internal
}
