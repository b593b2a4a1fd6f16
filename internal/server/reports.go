package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhive/internal/authz"
	"taskhive/internal/models"
	"taskhive/internal/report"
)

// recentActivityLimit caps the most-recent-activity strip on the board view.
const recentActivityLimit = 5

// boardProject is one per-project breakdown on the board report.
type boardProject struct {
	ProjectID string `json:"project_id"`
	RoomID    string `json:"room_id"`
	Title     string `json:"title"`
	report.ProjectSummary
	StatusBuckets map[string]int `json:"status_buckets"`
}

// handleReportSummary returns the caller's dashboard counters: total,
// completed and overdue across every room, scoped by assignment.
func (s *Server) handleReportSummary(c *gin.Context) {
	tasks, err := s.store.ListTasksByAssignee(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": report.UserTotals(tasks, identity(c), time.Now())})
}

// handleReportBoard builds the task-board projection: per-project totals
// with completion percentage, status buckets for the bar charts, and the
// five most recently updated tasks. Only projects the caller can access are
// included.
func (s *Server) handleReportBoard(c *gin.Context) {
	now := time.Now()

	rooms, err := s.store.ListRoomsForUser(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	var (
		boards   []boardProject
		allTasks []models.Task
	)
	for _, room := range rooms {
		projects, err := s.store.ListProjects(c.Request.Context(), room.ID)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		for _, project := range projects {
			if !authz.CanAccessProject(project, identity(c)) {
				continue
			}
			tasks, err := s.store.ListTasks(c.Request.Context(), project.ID)
			if err != nil {
				s.respondError(c, http.StatusInternalServerError, err)
				return
			}
			boards = append(boards, boardProject{
				ProjectID:      project.ID,
				RoomID:         project.RoomID,
				Title:          project.Title,
				ProjectSummary: report.ProjectTotals(tasks, now),
				StatusBuckets:  report.StatusBuckets(tasks),
			})
			allTasks = append(allTasks, tasks...)
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"projects":        boards,
		"totals":          report.ProjectTotals(allTasks, now),
		"recent_activity": report.RecentActivity(allTasks, recentActivityLimit),
	})
}
