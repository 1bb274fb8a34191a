package interfaces

import (
	"context"

	"rollcall/pkg/types"
)

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser persists a new account. Returns ErrDuplicateEmail if the
	// email is already registered.
	CreateUser(ctx context.Context, user *types.User) error

	// GetUserByID retrieves an account, or ErrUserNotFound.
	GetUserByID(ctx context.Context, userID string) (*types.User, error)

	// GetUserByEmail retrieves an account by email, or ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// ListUsersByRole returns every account with the given role.
	ListUsersByRole(ctx context.Context, role string) ([]*types.User, error)
}

// ClassStore owns class records and the enrollment relation.
type ClassStore interface {
	// CreateClass persists a new class with an empty enrollment set.
	CreateClass(ctx context.Context, class *types.Class) error

	// GetClass retrieves a class with its enrolled student IDs, or
	// ErrClassNotFound.
	GetClass(ctx context.Context, classID string) (*types.Class, error)

	// AddStudent enrolls a student in a class. Enrolling an already
	// enrolled student is a no-op.
	AddStudent(ctx context.Context, classID, studentID string) error

	// IsEnrolled reports whether the student belongs to the class's
	// enrollment set. Unknown classes are simply not enrolled.
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

// AttendanceLedger is the durable record of presence marks. Records are
// appended by the marking engine and never mutated or deleted.
type AttendanceLedger interface {
	// FindRecord returns the record for (class, student), or nil with no
	// error when none exists.
	FindRecord(ctx context.Context, classID, studentID string) (*types.AttendanceRecord, error)

	// InsertRecord appends a new record. Returns ErrDuplicateRecord if a
	// record for the same (class, student) pair already exists.
	InsertRecord(ctx context.Context, record *types.AttendanceRecord) error

	// ListRecordsByClass returns all records for a class.
	ListRecordsByClass(ctx context.Context, classID string) ([]*types.AttendanceRecord, error)
}
