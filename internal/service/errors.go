package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when the requesting user has no role on
	// the project, or a role insufficient for the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrDuplicateMember is returned when the target user already has a
	// role on the project.
	ErrDuplicateMember = errors.New("user is already a project member")

	// ErrImmutableOwnerRole is returned when member management targets
	// the project owner's role.
	ErrImmutableOwnerRole = errors.New("owner role cannot be changed")

	// ErrCannotRemoveOwner is returned when member removal targets the
	// project owner.
	ErrCannotRemoveOwner = errors.New("owner cannot be removed from project")

	// ErrProjectHasTasks blocks project deletion while tasks still
	// reference the project.
	ErrProjectHasTasks = errors.New("project still has tasks")

	// ErrMemberNotFound is returned when member management targets a
	// user with no role on the project.
	ErrMemberNotFound = errors.New("project member not found")

	// ErrTaskNotFound is returned by operations that attach rows to a
	// task when the task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
)

// ValidationError reports a payload that violates a data invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
