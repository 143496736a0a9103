package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced task or checklist item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the actor has no owner/assignee/member relation to the task.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidFilter indicates an unrecognized time-window key.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidCategory indicates a category outside the enumerated set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidPriority indicates a priority outside the enumerated set.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrInvalidID indicates a malformed task identifier, distinct from ErrNotFound.
	ErrInvalidID = errors.New("invalid identifier")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
