// Package workflow defines the task status set, the transition gate, and the
// derived overdue/completion predicates. Every surface that needs one of
// these predicates calls this package; the logic exists exactly once.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"taskhive/internal/authz"
	"taskhive/internal/models"
)

// Task statuses. Completed and Done are synonymous terminal-success states;
// Done is a legacy value still present on older records. New write paths
// accept Done on input but persist Completed.
const (
	StatusNotStarted    = "Not Started"
	StatusInProgress    = "In Progress"
	StatusPendingReview = "Pending Review"
	StatusCompleted     = "Completed"
	StatusDone          = "Done"
	StatusRedo          = "Redo"
)

// Statuses lists the fixed six-value enumeration in display order.
var Statuses = []string{
	StatusNotStarted,
	StatusInProgress,
	StatusPendingReview,
	StatusCompleted,
	StatusDone,
	StatusRedo,
}

var validStatuses = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Statuses))
	for _, s := range Statuses {
		m[s] = struct{}{}
	}
	return m
}()

// ErrNotPendingReview is returned when approve/reject is attempted on a task
// that is not awaiting review.
var ErrNotPendingReview = errors.New("task is not pending review")

// ErrLeaderOnly is returned when a non-leader tries to move a task out of
// Pending Review.
var ErrLeaderOnly = errors.New("only the project leader can change the status of a task pending review")

// ErrNotPermitted is returned when the identity fails the task-action gate.
var ErrNotPermitted = errors.New("only approved project members or the leader can change task status")

// IsValid reports whether s is one of the six known status values.
func IsValid(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// Normalize maps a stored or submitted status onto its canonical bucket
// value: the legacy Done alias becomes Completed, and blank or unrecognized
// values fall back to Not Started.
func Normalize(s string) string {
	if s == StatusDone {
		return StatusCompleted
	}
	if !IsValid(s) {
		return StatusNotStarted
	}
	return s
}

// IsComplete reports whether the status is a terminal-success state.
func IsComplete(status string) bool {
	return status == StatusCompleted || status == StatusDone
}

// IsOverdue reports whether the task's due date has passed and the task is
// not complete. The predicate is derived on every read and never persisted.
func IsOverdue(task models.Task, now time.Time) bool {
	if task.DueDate == "" || IsComplete(task.Status) {
		return false
	}
	due, err := time.ParseInLocation(models.DueDateLayout, task.DueDate, now.Location())
	if err != nil {
		return false
	}
	return due.Before(now)
}

// CanSetStatus decides whether the identity may move a task from its current
// status to next. Any of the six values may be set freely by an actor who
// passes the task-action gate, except that a task in Pending Review may only
// be moved by the project leader.
func CanSetStatus(project models.Project, identity, current, next string) error {
	if !IsValid(next) {
		return fmt.Errorf("unknown task status %q", next)
	}
	if !authz.CanPerformTaskActions(project, identity) {
		return ErrNotPermitted
	}
	if current == StatusPendingReview && authz.ProjectRole(project, identity) != authz.Leader {
		return ErrLeaderOnly
	}
	return nil
}

// Approve resolves a review by marking the task Completed. Valid only while
// the task is in Pending Review, which also makes it leader-only through
// CanSetStatus.
func Approve(project models.Project, identity, current string) (string, error) {
	return resolveReview(project, identity, current, StatusCompleted)
}

// Reject sends a reviewed task back for rework by marking it Redo.
func Reject(project models.Project, identity, current string) (string, error) {
	return resolveReview(project, identity, current, StatusRedo)
}

func resolveReview(project models.Project, identity, current, next string) (string, error) {
	if current != StatusPendingReview {
		return "", ErrNotPendingReview
	}
	if err := CanSetStatus(project, identity, current, next); err != nil {
		return "", err
	}
	return next, nil
}
