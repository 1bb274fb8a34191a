package types

import (
	"time"
)

// User roles. Every account is exactly one of these.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Attendance statuses recorded in the ledger.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Websocket message kinds exchanged on the attendance endpoint.
const (
	MessageTypeMarkAttendance = "mark_attendance"
	ReplyTypeSuccess          = "success"
	ReplyTypeInfo             = "info"
	ReplyTypeError            = "error"
)

// User represents a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string `json:"_id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

// Class represents a class owned by one teacher with a set of enrolled
// students. StudentIDs is the enrollment relation the marking engine
// consults.
type Class struct {
	ID         string   `json:"_id" db:"id"`
	Name       string   `json:"className" db:"name"`
	TeacherID  string   `json:"teacherId" db:"teacher_id"`
	StudentIDs []string `json:"studentIds"`
}

// AttendanceRecord is a durable presence fact. At most one record exists
// per (class, student) pair; the ledger backs this with a uniqueness
// constraint.
type AttendanceRecord struct {
	ID        string    `json:"_id" db:"id"`
	ClassID   string    `json:"classId" db:"class_id"`
	StudentID string    `json:"studentId" db:"student_id"`
	Status    string    `json:"status" db:"status"`
	MarkedAt  time.Time `json:"markedAt" db:"marked_at"`
}

// ActiveSession is the single live attendance window. It lives only in the
// session registry; a process restart drops it. Marks is an auxiliary
// in-memory log of studentID -> status, superseded by the ledger as the
// source of truth.
type ActiveSession struct {
	ClassID   string            `json:"classId"`
	StartedAt time.Time         `json:"startedAt"`
	Marks     map[string]string `json:"-"`
}

// NewActiveSession creates a fresh session for a class, timestamped now.
func NewActiveSession(classID string) *ActiveSession {
	return &ActiveSession{
		ClassID:   classID,
		StartedAt: time.Now(),
		Marks:     make(map[string]string),
	}
}

// SessionSummary is what the start-session operation echoes to the caller.
type SessionSummary struct {
	ClassID   string    `json:"classId"`
	StartedAt time.Time `json:"startedAt"`
}

// MarkRequest is the one inbound websocket message kind the gateway accepts.
type MarkRequest struct {
	Type    string `json:"type"`
	ClassID string `json:"classId"`
}

// Reply is the structured acknowledgement sent back on the same connection.
// Exactly one Reply is written per inbound MarkRequest.
type Reply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
