package types

import (
	"strings"
	"testing"
)

func TestIsValidID(t *testing.T) {
	valid := []string{"a", "u1", "class-42", "student_7", strings.Repeat("x", 50)}
	for _, id := range valid {
		if !IsValidID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "slash/", strings.Repeat("x", 51)}
	for _, id := range invalid {
		if IsValidID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleTeacher) || !IsValidRole(RoleStudent) {
		t.Error("supported roles must validate")
	}
	if IsValidRole("admin") || IsValidRole("") {
		t.Error("unknown roles must not validate")
	}
}

func TestClassValidate(t *testing.T) {
	class := &Class{ID: "c1", Name: "Algorithms", TeacherID: "t1"}
	if err := class.Validate(); err != nil {
		t.Fatalf("expected valid class, got %v", err)
	}

	class.Name = ""
	if err := class.Validate(); err != ErrInvalidClassName {
		t.Fatalf("expected ErrInvalidClassName, got %v", err)
	}

	class.Name = strings.Repeat("x", 201)
	if err := class.Validate(); err != ErrInvalidClassName {
		t.Fatalf("expected ErrInvalidClassName for oversized name, got %v", err)
	}

	class.Name = "Algorithms"
	class.TeacherID = "bad id"
	if err := class.Validate(); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestAttendanceRecordValidate(t *testing.T) {
	record := &AttendanceRecord{ID: "a1", ClassID: "c1", StudentID: "s1", Status: StatusPresent}
	if err := record.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	record.Status = "late"
	if err := record.Validate(); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	record.Status = StatusPresent
	record.ClassID = ""
	if err := record.Validate(); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestNewActiveSession(t *testing.T) {
	session := NewActiveSession("c1")
	if session.ClassID != "c1" {
		t.Fatalf("unexpected class ID %q", session.ClassID)
	}
	if session.StartedAt.IsZero() {
		t.Fatal("expected a start timestamp")
	}
	if session.Marks == nil || len(session.Marks) != 0 {
		t.Fatal("expected an empty mark log")
	}
}
