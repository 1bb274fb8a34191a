package types

import (
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidID checks identifier format for users, classes and records.
func IsValidID(id string) bool {
	if len(id) < 1 || len(id) > 50 {
		return false
	}
	return idRegex.MatchString(id)
}

// IsValidRole reports whether role is one of the two supported roles.
func IsValidRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}

// IsValidStatus reports whether status is a recordable attendance status.
func IsValidStatus(status string) bool {
	return status == StatusPresent || status == StatusAbsent
}

// Validate ensures a class is storable.
func (c *Class) Validate() error {
	if len(c.Name) < 1 || len(c.Name) > 200 {
		return ErrInvalidClassName
	}
	if !IsValidID(c.TeacherID) {
		return ErrInvalidID
	}
	return nil
}

// Validate ensures an attendance record is storable.
func (r *AttendanceRecord) Validate() error {
	if !IsValidID(r.ClassID) || !IsValidID(r.StudentID) {
		return ErrInvalidID
	}
	if !IsValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	return nil
}
