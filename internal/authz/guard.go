package authz

import (
	"fmt"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/models"
)

// Relationship names the link a caller must have to a task.
type Relationship string

const (
	RelationNone     Relationship = ""
	RelationCreator  Relationship = "creator"
	RelationAssignee Relationship = "assignee"
)

// Guard is the single authorization check applied before a task
// transition: an optional required role plus an optional required
// relationship to the task. Zero value allows any authenticated caller.
type Guard struct {
	Role         string
	Relationship Relationship
}

// Caller is the verified identity attached to a request.
type Caller struct {
	UID  string
	Role string
}

// Check evaluates the guard against a caller and task. task may be nil
// when the guard carries no relationship.
func (g Guard) Check(caller Caller, task *models.Task) error {
	if g.Role != "" && caller.Role != g.Role {
		return fmt.Errorf("requires role %s: %w", g.Role, apperrors.ErrForbidden)
	}
	switch g.Relationship {
	case RelationCreator:
		if task == nil || task.CreatorID != caller.UID {
			return fmt.Errorf("not the task creator: %w", apperrors.ErrForbidden)
		}
	case RelationAssignee:
		if task == nil || task.AssigneeID == nil || *task.AssigneeID != caller.UID {
			return fmt.Errorf("not assigned to this task: %w", apperrors.ErrForbidden)
		}
	}
	return nil
}
