package users

import (
	"fmt"
	"strings"
)

// The lifecycle service surfaces exactly one of these error kinds per failed
// operation. The transport layer owns mapping them to protocol status codes.

// ValidationError reports input that violates a stated invariant. It is
// produced before any store access and always carries at least one violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// AlreadyExistsError reports a create for an id that is already present.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("user %q already exists", e.ID)
}

// NotFoundError reports a get or delete referencing an absent id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.ID)
}

// RepositoryError wraps a store failure that is not one of the known semantic
// conditions. The cause is available via Unwrap for internal logging; the
// Error string stays generic so driver detail never reaches callers.
type RepositoryError struct {
	cause error
}

func NewRepositoryError(cause error) *RepositoryError {
	return &RepositoryError{cause: cause}
}

func (e *RepositoryError) Error() string {
	return "repository failure"
}

func (e *RepositoryError) Unwrap() error {
	return e.cause
}
