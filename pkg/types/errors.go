package types

import "errors"

// Validation errors shared across components.
var (
	ErrInvalidID        = errors.New("id must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidRole      = errors.New("role must be 'teacher' or 'student'")
	ErrInvalidStatus    = errors.New("status must be 'present' or 'absent'")
	ErrInvalidClassName = errors.New("class name must be 1-200 characters")
)
