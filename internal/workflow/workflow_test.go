package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhive/internal/models"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func leaderProject() models.Project {
	return models.Project{
		CreatorEmail: "lead@x.com",
		Role:         models.RoleLeader,
		Members: []models.Member{
			{Email: "lead@x.com", Status: models.MemberApproved},
			{Email: "dev@x.com", Status: models.MemberApproved},
			{Email: "new@x.com", Status: models.MemberPending},
		},
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, StatusCompleted, Normalize(StatusDone))
	assert.Equal(t, StatusNotStarted, Normalize(""))
	assert.Equal(t, StatusNotStarted, Normalize("Blocked"))
	assert.Equal(t, StatusInProgress, Normalize(StatusInProgress))
}

func TestIsComplete_TreatsDoneAsCompleted(t *testing.T) {
	assert.True(t, IsComplete(StatusCompleted))
	assert.True(t, IsComplete(StatusDone))
	assert.False(t, IsComplete(StatusPendingReview))
	assert.False(t, IsComplete(StatusRedo))
}

func TestIsOverdue(t *testing.T) {
	task := models.Task{DueDate: "2024-06-14", Status: StatusInProgress}

	assert.True(t, IsOverdue(task, now))

	// Completing an overdue task makes the predicate false immediately,
	// and calling it again does not change the answer.
	task.Status = StatusCompleted
	assert.False(t, IsOverdue(task, now))
	assert.False(t, IsOverdue(task, now))

	// Status-based exclusion takes precedence over the date comparison for
	// the legacy Done value too.
	task.Status = StatusDone
	assert.False(t, IsOverdue(task, now))
}

func TestIsOverdue_EdgeCases(t *testing.T) {
	assert.False(t, IsOverdue(models.Task{Status: StatusInProgress}, now), "no due date")
	assert.False(t, IsOverdue(models.Task{DueDate: "2024-07-01", Status: StatusInProgress}, now), "due in the future")
	assert.False(t, IsOverdue(models.Task{DueDate: "garbage", Status: StatusInProgress}, now), "unparseable date")
}

func TestCanSetStatus_FreeSelectorForApprovedActors(t *testing.T) {
	p := leaderProject()

	for _, next := range Statuses {
		assert.NoError(t, CanSetStatus(p, "dev@x.com", StatusNotStarted, next), next)
	}
}

func TestCanSetStatus_PendingReviewIsLeaderOnly(t *testing.T) {
	p := leaderProject()

	err := CanSetStatus(p, "dev@x.com", StatusPendingReview, StatusCompleted)
	assert.ErrorIs(t, err, ErrLeaderOnly)

	assert.NoError(t, CanSetStatus(p, "lead@x.com", StatusPendingReview, StatusCompleted))
}

func TestCanSetStatus_RejectsOutsiders(t *testing.T) {
	p := leaderProject()

	assert.ErrorIs(t, CanSetStatus(p, "new@x.com", StatusNotStarted, StatusInProgress), ErrNotPermitted)
	assert.ErrorIs(t, CanSetStatus(p, "stranger@x.com", StatusNotStarted, StatusInProgress), ErrNotPermitted)
}

func TestCanSetStatus_UnknownStatus(t *testing.T) {
	err := CanSetStatus(leaderProject(), "dev@x.com", StatusNotStarted, "Archived")
	assert.Error(t, err)
}

func TestApproveReject(t *testing.T) {
	p := leaderProject()

	next, err := Approve(p, "lead@x.com", StatusPendingReview)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, next)

	next, err = Reject(p, "lead@x.com", StatusPendingReview)
	require.NoError(t, err)
	assert.Equal(t, StatusRedo, next)
}

func TestApprove_RequiresPendingReview(t *testing.T) {
	p := leaderProject()

	_, err := Approve(p, "lead@x.com", StatusNotStarted)
	assert.ErrorIs(t, err, ErrNotPendingReview)

	_, err = Reject(p, "lead@x.com", StatusCompleted)
	assert.ErrorIs(t, err, ErrNotPendingReview)
}

func TestApprove_LeaderOnly(t *testing.T) {
	_, err := Approve(leaderProject(), "dev@x.com", StatusPendingReview)
	assert.ErrorIs(t, err, ErrLeaderOnly)
}
