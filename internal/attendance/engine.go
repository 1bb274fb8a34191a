package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Outcome is the result of a marking attempt.
type Outcome int

const (
	// Success: a new ledger record was written.
	Success Outcome = iota
	// AlreadyMarked: a record for (class, student) already existed. This
	// is an idempotent no-op, not an error.
	AlreadyMarked
	// NoActiveSession: no session is running, or the running session
	// covers a different class.
	NoActiveSession
	// NotEnrolled: the student is not in the class's enrollment set.
	NotEnrolled
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AlreadyMarked:
		return "already_marked"
	case NoActiveSession:
		return "no_active_session"
	case NotEnrolled:
		return "not_enrolled"
	default:
		return "unknown"
	}
}

// Engine is the decision procedure behind every mark_attendance message.
type Engine struct {
	registry *session.Registry
	classes  interfaces.ClassStore
	ledger   interfaces.AttendanceLedger
}

// NewEngine creates a marking engine.
func NewEngine(registry *session.Registry, classes interfaces.ClassStore, ledger interfaces.AttendanceLedger) *Engine {
	return &Engine{
		registry: registry,
		classes:  classes,
		ledger:   ledger,
	}
}

// Mark records a presence claim. The checks run in a fixed order that
// decides which rejection wins when several apply: session first, then
// enrollment, then the prior-record check, then the insert.
//
// The read-then-insert sequence is not atomic across its store accesses;
// the ledger's uniqueness constraint backstops it, and a rejected insert
// is reported as AlreadyMarked rather than an error.
func (e *Engine) Mark(ctx context.Context, studentID, classID string) (Outcome, error) {
	active := e.registry.Active()
	if active == nil || active.ClassID != classID {
		return NoActiveSession, nil
	}

	enrolled, err := e.classes.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return 0, fmt.Errorf("enrollment check failed: %w", err)
	}
	if !enrolled {
		return NotEnrolled, nil
	}

	existing, err := e.ledger.FindRecord(ctx, classID, studentID)
	if err != nil {
		return 0, fmt.Errorf("ledger lookup failed: %w", err)
	}
	if existing != nil {
		return AlreadyMarked, nil
	}

	record := &types.AttendanceRecord{
		ID:        uuid.New().String(),
		ClassID:   classID,
		StudentID: studentID,
		Status:    types.StatusPresent,
		MarkedAt:  time.Now(),
	}
	if err := e.ledger.InsertRecord(ctx, record); err != nil {
		if err == interfaces.ErrDuplicateRecord {
			return AlreadyMarked, nil
		}
		return 0, fmt.Errorf("ledger insert failed: %w", err)
	}

	e.registry.RecordMark(classID, studentID, types.StatusPresent)

	log.Printf("Marked attendance: class=%s student=%s", classID, studentID)
	return Success, nil
}
