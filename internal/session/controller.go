package session

import (
	"context"
	"fmt"
	"log"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Controller exposes the start-session operation to authorized teachers.
type Controller struct {
	registry *Registry
	classes  interfaces.ClassStore
}

// NewController creates a session controller.
func NewController(registry *Registry, classes interfaces.ClassStore) *Controller {
	return &Controller{
		registry: registry,
		classes:  classes,
	}
}

// Start validates the requester and replaces the active session with a
// fresh one for classID. Precondition order: requester must be a teacher,
// the class must exist, and its owning teacher must be the requester. Any
// violation aborts before the registry is touched.
//
// A passing start replaces whatever session is currently active, including
// another teacher's. That is deliberate: one live attendance window exists
// per process.
func (c *Controller) Start(ctx context.Context, requesterID, requesterRole, classID string) (*types.SessionSummary, error) {
	if requesterRole != types.RoleTeacher {
		return nil, ErrNotTeacher
	}

	class, err := c.classes.GetClass(ctx, classID)
	if err != nil {
		if err == interfaces.ErrClassNotFound {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to resolve class: %w", err)
	}
	if class.TeacherID != requesterID {
		return nil, ErrNotClassTeacher
	}

	active := types.NewActiveSession(classID)
	c.registry.SetActive(active)

	log.Printf("Started attendance session: class=%s teacher=%s", classID, requesterID)
	return &types.SessionSummary{
		ClassID:   active.ClassID,
		StartedAt: active.StartedAt,
	}, nil
}
