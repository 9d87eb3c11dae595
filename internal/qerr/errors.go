// Package qerr defines the error taxonomy shared by the resolution and
// execution layers.
//
// Every error surfaced by the core is an *Error carrying a Code. Callers
// branch on the code through the IsXxx predicates, which unwrap with
// errors.As so that fmt.Errorf("...: %w") wrapping along the call chain
// does not hide the category.
package qerr

import (
	"errors"
	"fmt"
)

// Code categorizes an error.
type Code string

const (
	// CodeUnresolvedIdentifier: no resolution rule matched a dotted path.
	CodeUnresolvedIdentifier Code = "UNRESOLVED_IDENTIFIER"

	// CodeInvalidPath: a path traverses an attribute that cannot be joined.
	CodeInvalidPath Code = "INVALID_PATH"

	// CodeAmbiguousReference: an unqualified attribute is declared by more
	// than one from-element in scope.
	CodeAmbiguousReference Code = "AMBIGUOUS_REFERENCE"

	// CodeDuplicateAlias: the same alias was declared twice in one scope.
	CodeDuplicateAlias Code = "DUPLICATE_ALIAS"

	// CodeUnsupportedOperation: the operation or physical type is not
	// supported at all. Never retried.
	CodeUnsupportedOperation Code = "UNSUPPORTED_OPERATION"

	// CodeNotYetImplemented: a declared but unimplemented entry point
	// (DML, procedure calls). Not a transient condition.
	CodeNotYetImplemented Code = "NOT_YET_IMPLEMENTED"

	// CodeInternalConsistency: the semantic tree references state it never
	// built. Indicates a bug upstream, never a user error.
	CodeInternalConsistency Code = "INTERNAL_CONSISTENCY"

	// CodeExecutionFailed: the connectivity layer failed while preparing,
	// binding or executing a statement.
	CodeExecutionFailed Code = "EXECUTION_FAILED"

	// CodeUnboundParameter: a statement parameter has no bound value.
	CodeUnboundParameter Code = "UNBOUND_PARAMETER"
)

// Error is the single error type of the core.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Path is the original dotted path text, for resolution errors.
	Path string

	// SQL is the statement text, for execution errors.
	SQL string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.SQL != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.SQL)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// Has reports whether err carries the given code.
func Has(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsUnresolved reports whether err is an unresolved-identifier error.
func IsUnresolved(err error) bool { return Has(err, CodeUnresolvedIdentifier) }

// IsUnsupported reports whether err is an unsupported-operation error.
func IsUnsupported(err error) bool { return Has(err, CodeUnsupportedOperation) }

// IsNotYetImplemented reports whether err is a not-yet-implemented error.
func IsNotYetImplemented(err error) bool { return Has(err, CodeNotYetImplemented) }

// IsInternal reports whether err is an internal-consistency error.
func IsInternal(err error) bool { return Has(err, CodeInternalConsistency) }

// IsExecutionFailure reports whether err is a wrapped execution failure.
func IsExecutionFailure(err error) bool { return Has(err, CodeExecutionFailed) }

// Unresolved creates the error raised when no resolution rule matches.
func Unresolved(path string) *Error {
	return &Error{
		Code:    CodeUnresolvedIdentifier,
		Message: "could not interpret token",
		Path:    path,
	}
}

// InvalidPath creates an error for a path that cannot be traversed.
func InvalidPath(path, message string) *Error {
	return &Error{Code: CodeInvalidPath, Message: message, Path: path}
}

// Ambiguous creates an error for an attribute declared by several elements.
func Ambiguous(attribute string, aliases []string) *Error {
	return &Error{
		Code:    CodeAmbiguousReference,
		Message: fmt.Sprintf("attribute %q is declared by multiple from-elements %v", attribute, aliases),
		Path:    attribute,
	}
}

// DuplicateAlias creates an error for an alias declared twice.
func DuplicateAlias(alias string) *Error {
	return &Error{
		Code:    CodeDuplicateAlias,
		Message: fmt.Sprintf("alias %q already declared in scope", alias),
	}
}

// Unsupported creates an unsupported-operation error.
func Unsupported(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedOperation, Message: fmt.Sprintf(format, args...)}
}

// NotYetImplemented creates the error returned by unimplemented entry points.
func NotYetImplemented(what string) *Error {
	return &Error{Code: CodeNotYetImplemented, Message: what + " is not yet implemented"}
}

// Internal creates an internal-consistency error.
func Internal(format string, args ...any) *Error {
	return &Error{Code: CodeInternalConsistency, Message: fmt.Sprintf(format, args...)}
}

// ExecutionFailed wraps a connectivity failure with the offending SQL.
func ExecutionFailed(sql string, cause error) *Error {
	return &Error{
		Code:    CodeExecutionFailed,
		Message: "exception executing SQL",
		SQL:     sql,
		Cause:   cause,
	}
}

// UnboundParameter creates an error for a parameter with no value.
func UnboundParameter(name string) *Error {
	return &Error{
		Code:    CodeUnboundParameter,
		Message: fmt.Sprintf("no value bound for parameter %q", name),
	}
}
