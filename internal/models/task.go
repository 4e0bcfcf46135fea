// internal/models/task.go
package models

import "time"

// TaskStatus defines the stored statuses of a task.
type TaskStatus string

const (
	StatusOpen      TaskStatus = "Open"
	StatusAssigned  TaskStatus = "Assigned"
	StatusDone      TaskStatus = "Done"
	StatusCompleted TaskStatus = "Completed"
	StatusCanceled  TaskStatus = "Canceled"

	// StatusApplied is never stored: it is the display status of an Open
	// task that has at least one application.
	StatusApplied TaskStatus = "Applied"
)

// Task represents a unit of work posted by a customer.
type Task struct {
	ID              string     `json:"id"`
	CreatorID       string     `json:"creator_id"`
	CreatorUsername string     `json:"username,omitempty"`
	AssigneeID      *string    `json:"assignee_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Price           float64    `json:"price"`
	Place           string     `json:"place"`
	Day             string     `json:"day"`
	Time            string     `json:"time"`
	Type            string     `json:"type"`
	Status          TaskStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// ApplicationsCount is filled by list queries, not stored on the row.
	ApplicationsCount int `json:"applicationsCount"`
}

// EffectiveStatus is the single place the derived "Applied" status is
// computed; every read path goes through it.
func EffectiveStatus(stored TaskStatus, applications int) TaskStatus {
	if stored == StatusOpen && applications > 0 {
		return StatusApplied
	}
	return stored
}

// HasAssignee reports whether the status requires an assignee on the row.
func (s TaskStatus) HasAssignee() bool {
	switch s {
	case StatusAssigned, StatusDone, StatusCompleted:
		return true
	}
	return false
}

// ClosedToBidding reports whether applications are rejected in this status.
func (s TaskStatus) ClosedToBidding() bool {
	switch s {
	case StatusCanceled, StatusAssigned, StatusDone, StatusCompleted:
		return true
	}
	return false
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	CreatorID  *string
	AssigneeID *string
	Status     *TaskStatus
}
