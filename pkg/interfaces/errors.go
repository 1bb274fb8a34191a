package interfaces

import "errors"

// Errors shared across store and verifier implementations.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrClassNotFound     = errors.New("class not found")
	ErrDuplicateRecord   = errors.New("attendance record already exists")
)
