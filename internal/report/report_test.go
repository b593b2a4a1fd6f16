package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskhive/internal/models"
	"taskhive/internal/workflow"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestUserTotals_ScopedByAssignee(t *testing.T) {
	tasks := []models.Task{
		{AssignedTo: "a@x.com", Status: workflow.StatusCompleted},
		{AssignedTo: "a@x.com", Status: workflow.StatusInProgress, DueDate: "2024-06-14"},
		{AssignedTo: "b@x.com", Status: workflow.StatusInProgress, DueDate: "2024-06-14"},
	}

	totals := UserTotals(tasks, "a@x.com", now)
	assert.Equal(t, Totals{Total: 2, Completed: 1, Overdue: 1}, totals)
}

func TestUserTotals_SingleOverdueScenario(t *testing.T) {
	// One task assigned to the user, due yesterday, in progress.
	tasks := []models.Task{
		{AssignedTo: "a@x.com", Status: workflow.StatusInProgress, DueDate: "2024-06-14"},
	}

	totals := UserTotals(tasks, "a@x.com", now)
	assert.Equal(t, 1, totals.Total)
	assert.Equal(t, 0, totals.Completed)
	assert.Equal(t, 1, totals.Overdue)
}

func TestUserTotals_DoneCountsAsCompletedNotOverdue(t *testing.T) {
	tasks := []models.Task{
		{AssignedTo: "a@x.com", Status: workflow.StatusDone, DueDate: "2024-01-01"},
	}

	totals := UserTotals(tasks, "a@x.com", now)
	assert.Equal(t, Totals{Total: 1, Completed: 1, Overdue: 0}, totals)
}

func TestProjectTotals_PercentComplete(t *testing.T) {
	assert.Equal(t, 0, ProjectTotals(nil, now).PercentComplete, "empty list divides by nothing")

	oneOfThree := []models.Task{
		{Status: workflow.StatusCompleted},
		{Status: workflow.StatusInProgress},
		{Status: workflow.StatusNotStarted},
	}
	assert.Equal(t, 33, ProjectTotals(oneOfThree, now).PercentComplete)

	// 1/8 = 12.5 rounds half up.
	oneOfEight := make([]models.Task, 8)
	oneOfEight[0].Status = workflow.StatusCompleted
	assert.Equal(t, 13, ProjectTotals(oneOfEight, now).PercentComplete)
}

func TestStatusBuckets_FixedEnumerationWithFallback(t *testing.T) {
	tasks := []models.Task{
		{Status: workflow.StatusInProgress},
		{Status: workflow.StatusDone},
		{Status: ""},
		{Status: "totally bogus"},
	}

	buckets := StatusBuckets(tasks)
	assert.Len(t, buckets, len(workflow.Statuses))
	assert.Equal(t, 1, buckets[workflow.StatusInProgress])
	assert.Equal(t, 1, buckets[workflow.StatusDone])
	// Blank and unrecognized statuses land in Not Started.
	assert.Equal(t, 2, buckets[workflow.StatusNotStarted])
	assert.Equal(t, 0, buckets[workflow.StatusRedo])
}

func TestRecentActivity(t *testing.T) {
	tasks := make([]models.Task, 7)
	for i := range tasks {
		tasks[i].Title = string(rune('a' + i))
		tasks[i].UpdatedAt = now.Add(time.Duration(i) * time.Minute)
	}
	// One task never updated: excluded from this view only.
	tasks = append(tasks, models.Task{Title: "stale"})

	recent := RecentActivity(tasks, 5)
	assert.Len(t, recent, 5)
	assert.Equal(t, "g", recent[0].Title, "newest first")
	assert.Equal(t, "c", recent[4].Title)
	for _, task := range recent {
		assert.NotEqual(t, "stale", task.Title)
	}
}

func TestRecentActivity_ShorterThanLimit(t *testing.T) {
	tasks := []models.Task{{Title: "only", UpdatedAt: now}}
	assert.Len(t, RecentActivity(tasks, 5), 1)
}
