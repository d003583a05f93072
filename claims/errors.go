package claims

import (
	"errors"
	"fmt"
)

// Sentinel errors the store contract uses to report state the engine must
// translate into its own taxonomy.
var (
	// ErrNotFound is returned by store lookups when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotPending is returned by the store when a claim decision is
	// attempted on a claim that is no longer pending at write time.
	ErrNotPending = errors.New("claim is not pending")
)

// ValidationError means the input itself is malformed or incomplete.
// The operation aborts before any write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// PreconditionError means the input is valid but system state forbids the
// operation. The operation aborts before any write.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition: " + e.Reason
}

// AuthorizationError is a PreconditionError whose violated precondition is
// the actor's authority over the claim: wrong role, or a maintainer acting
// on a claim frozen to someone else. It unwraps to a PreconditionError;
// handlers map it to 403 where plain preconditions map to 409.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "precondition: " + e.Reason
}

func (e *AuthorizationError) Unwrap() error {
	return &PreconditionError{Reason: e.Reason}
}

// DependencyError means a store call that is part of the primary operation
// failed. The operation did not complete.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency: %s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func preconditionf(format string, args ...interface{}) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

func authorizationf(format string, args ...interface{}) error {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

func dependency(op string, err error) error {
	return &DependencyError{Op: op, Err: err}
}
