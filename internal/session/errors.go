package session

import "errors"

// Session-start precondition errors.
var (
	ErrNotTeacher      = errors.New("only teachers can start attendance sessions")
	ErrClassNotFound   = errors.New("class not found")
	ErrNotClassTeacher = errors.New("forbidden, not class teacher")
)
