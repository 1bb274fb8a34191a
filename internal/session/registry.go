package session

import (
	"sync"

	"rollcall/pkg/types"
)

// Registry holds the single process-wide active attendance session. It is
// a pure state holder: callers are trusted to have validated preconditions
// before mutating the slot.
//
// Handlers run on real OS threads, so the slot is mutex-guarded. Setting a
// new session replaces any prior one unconditionally; there is no explicit
// end operation, and a process restart drops the slot entirely.
type Registry struct {
	mu     sync.RWMutex
	active *types.ActiveSession
}

// NewRegistry creates an empty registry. One instance is constructed at
// startup and shared by the controller and the gateway.
func NewRegistry() *Registry {
	return &Registry{}
}

// Active returns the current session, or nil when none is running.
func (r *Registry) Active() *types.ActiveSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive replaces the current session. Passing nil clears the slot.
func (r *Registry) SetActive(session *types.ActiveSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = session
}

// RecordMark appends to the active session's auxiliary mark log, provided
// the session for classID is still the active one. The ledger remains the
// source of truth; this log only mirrors marks taken during the window.
func (r *Registry) RecordMark(classID, studentID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.active.ClassID != classID {
		return
	}
	r.active.Marks[studentID] = status
}
