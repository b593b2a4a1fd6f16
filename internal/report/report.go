// Package report derives dashboard counters and per-project breakdowns from
// in-memory task collections. Everything here is a pure projection; nothing
// is cached or incrementally maintained.
package report

import (
	"math"
	"sort"
	"time"

	"taskhive/internal/models"
	"taskhive/internal/workflow"
)

// Totals are the three counters shown on every dashboard surface.
type Totals struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// ProjectSummary extends Totals with the completion percentage used by the
// board view.
type ProjectSummary struct {
	Totals
	PercentComplete int `json:"percent_complete"`
}

// UserTotals counts the tasks assigned to the identity, scoped by equality
// on the assignee field.
func UserTotals(tasks []models.Task, identity string, now time.Time) Totals {
	var t Totals
	for _, task := range tasks {
		if task.AssignedTo != identity {
			continue
		}
		t.Total++
		if workflow.IsComplete(task.Status) {
			t.Completed++
		}
		if workflow.IsOverdue(task, now) {
			t.Overdue++
		}
	}
	return t
}

// ProjectTotals summarizes an already project-scoped task list.
// PercentComplete rounds half up and is 0 for an empty list.
func ProjectTotals(tasks []models.Task, now time.Time) ProjectSummary {
	var s ProjectSummary
	for _, task := range tasks {
		s.Total++
		if workflow.IsComplete(task.Status) {
			s.Completed++
		}
		if workflow.IsOverdue(task, now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.PercentComplete = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// StatusBuckets counts tasks per status value over the fixed enumeration.
// Blank or unrecognized statuses are bucketed as Not Started, matching how
// badges fall back when coloring unknown values.
func StatusBuckets(tasks []models.Task) map[string]int {
	buckets := make(map[string]int, len(workflow.Statuses))
	for _, s := range workflow.Statuses {
		buckets[s] = 0
	}
	for _, task := range tasks {
		s := task.Status
		if !workflow.IsValid(s) {
			s = workflow.StatusNotStarted
		}
		buckets[s]++
	}
	return buckets
}

// RecentActivity returns the n most recently updated tasks, newest first.
// Tasks without an update timestamp are excluded from this view only, not
// from any of the totals.
func RecentActivity(tasks []models.Task, n int) []models.Task {
	recent := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.UpdatedAt.IsZero() {
			continue
		}
		recent = append(recent, task)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > n {
		recent = recent[:n]
	}
	return recent
}
