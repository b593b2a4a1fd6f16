package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhive/internal/authz"
	"taskhive/internal/models"
	"taskhive/internal/workflow"
)

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assigned_to"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// taskView decorates a task with the derived overdue flag so every surface
// renders the same predicate.
type taskView struct {
	models.Task
	Overdue bool `json:"overdue"`
}

func viewTasks(tasks []models.Task, now time.Time) []taskView {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView{Task: t, Overdue: workflow.IsOverdue(t, now)})
	}
	return views
}

func taskTopic(roomID, projectID string) string {
	return "rooms/" + roomID + "/projects/" + projectID + "/tasks"
}

// projectFor loads the project for the request scope. It writes the error
// response itself when the project is missing.
func (s *Server) projectFor(c *gin.Context) (models.Project, bool) {
	project, err := s.store.GetProject(c.Request.Context(), c.Param("roomID"), c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return models.Project{}, false
	}
	return project, true
}

// handleListTasks fetches the tasks of a project for its approved members.
func (s *Server) handleListTasks(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), project.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": viewTasks(tasks, time.Now())})
}

// handleCreateTask inserts a new task. Title and assignee are required, and
// the assignee must be assignable: the leader or an approved member.
func (s *Server) handleCreateTask(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanPerformTaskActions(project, identity(c)) {
		s.respondForbidden(c, "only approved project members or the leader can add tasks")
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("task title cannot be empty"))
		return
	}
	if req.AssignedTo == nil || *req.AssignedTo == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("task must be assigned to someone before it is created"))
		return
	}
	if !isAssignable(project, *req.AssignedTo) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%s is not an approved member of this project", *req.AssignedTo))
		return
	}
	if req.DueDate != nil && *req.DueDate != "" {
		if _, err := time.Parse(models.DueDateLayout, *req.DueDate); err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("due date must be in %s form", models.DueDateLayout))
			return
		}
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		ProjectID:   project.ID,
		RoomID:      project.RoomID,
		Title:       *req.Title,
		Description: getString(req.Description),
		DueDate:     getString(req.DueDate),
		Priority:    getString(req.Priority),
		AssignedTo:  *req.AssignedTo,
		Status:      workflow.StatusNotStarted,
	})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusCreated, gin.H{"task": taskView{Task: task, Overdue: workflow.IsOverdue(task, time.Now())}})
}

// handleUpdateTask updates task fields other than status: reassignment,
// description, due date, priority.
func (s *Server) handleUpdateTask(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanPerformTaskActions(project, identity(c)) {
		s.respondForbidden(c, "only approved project members or the leader can edit tasks")
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]any{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		if *req.DueDate != "" {
			if _, err := time.Parse(models.DueDateLayout, *req.DueDate); err != nil {
				s.respondError(c, http.StatusBadRequest, fmt.Errorf("due date must be in %s form", models.DueDateLayout))
				return
			}
		}
		updates["due_date"] = *req.DueDate
	}
	if req.Priority != nil {
		if _, valid := models.ValidPriorities[*req.Priority]; !valid {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("unknown priority %q", *req.Priority))
			return
		}
		updates["priority"] = *req.Priority
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo != "" && !isAssignable(project, *req.AssignedTo) {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("%s is not an approved member of this project", *req.AssignedTo))
			return
		}
		updates["assigned_to"] = *req.AssignedTo
	}

	task, err := s.store.UpdateTask(c.Request.Context(), project.ID, c.Param("taskID"), updates)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusOK, gin.H{"task": taskView{Task: task, Overdue: workflow.IsOverdue(task, time.Now())}})
}

// handleSetTaskStatus moves a task through the workflow. The gate lives in
// the workflow package: anyone passing the task-action check may pick any
// status, except that a task pending review only moves by leader decision.
func (s *Server) handleSetTaskStatus(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	// Access is checked before the task is fetched so outsiders cannot tell
	// an existing task from a missing one.
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	current, err := s.store.GetTask(c.Request.Context(), project.ID, c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if err := workflow.CanSetStatus(project, identity(c), current.Status, req.Status); err != nil {
		s.respondWorkflowError(c, err)
		return
	}

	task, err := s.store.SetTaskStatus(c.Request.Context(), project.ID, current.ID, req.Status)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusOK, gin.H{"task": taskView{Task: task, Overdue: workflow.IsOverdue(task, time.Now())}})
}

// handleApproveTask resolves a review as Completed.
func (s *Server) handleApproveTask(c *gin.Context) {
	s.resolveReview(c, workflow.Approve)
}

// handleRejectTask sends a reviewed task back as Redo.
func (s *Server) handleRejectTask(c *gin.Context) {
	s.resolveReview(c, workflow.Reject)
}

func (s *Server) resolveReview(c *gin.Context, decide func(models.Project, string, string) (string, error)) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	current, err := s.store.GetTask(c.Request.Context(), project.ID, c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	next, err := decide(project, identity(c), current.Status)
	if err != nil {
		s.respondWorkflowError(c, err)
		return
	}

	task, err := s.store.SetTaskStatus(c.Request.Context(), project.ID, current.ID, next)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusOK, gin.H{"task": taskView{Task: task, Overdue: workflow.IsOverdue(task, time.Now())}})
}

// handleDeleteTask removes a task completely. Leader-only, stricter than
// editing.
func (s *Server) handleDeleteTask(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanDeleteTask(project, identity(c)) {
		s.respondForbidden(c, "only the project leader can delete tasks")
		return
	}

	if err := s.store.DeleteTask(c.Request.Context(), project.ID, c.Param("taskID")); err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleListTasksAcrossRooms is the cross-room task query. With
// ?assigned_to=me (or an explicit identity) it scopes to an assignee; bare,
// it returns every task for calendar-style views.
func (s *Server) handleListTasksAcrossRooms(c *gin.Context) {
	assignee := c.Query("assigned_to")
	if assignee == "me" {
		assignee = identity(c)
	}

	var (
		tasks []models.Task
		err   error
	)
	if assignee == "" {
		tasks, err = s.store.ListAllTasks(c.Request.Context())
	} else {
		tasks, err = s.store.ListTasksByAssignee(c.Request.Context(), assignee)
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": viewTasks(tasks, time.Now())})
}

// respondWorkflowError maps workflow gate failures onto the error taxonomy:
// permission failures are 403, state failures are 409, anything else is a
// bad request.
func (s *Server) respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotPermitted), errors.Is(err, workflow.ErrLeaderOnly):
		s.respondForbidden(c, err.Error())
	case errors.Is(err, workflow.ErrNotPendingReview):
		s.respondError(c, http.StatusConflict, err)
	default:
		s.respondError(c, http.StatusBadRequest, err)
	}
}

func isAssignable(project models.Project, email string) bool {
	for _, candidate := range authz.AssignableMembers(project) {
		if candidate == email {
			return true
		}
	}
	return false
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
