package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/authz"
	"taskhive/internal/models"
)

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Leader      bool   `json:"leader"`
}

type memberRequest struct {
	Email string `json:"email"`
}

type memberStatusRequest struct {
	Status models.MemberStatus `json:"status"`
}

// projectView decorates a project with the caller's standing, mirroring the
// badges the room screen renders per project card.
type projectView struct {
	models.Project
	YourRole authz.ProjectStanding `json:"your_role"`
}

// handleListProjects returns the projects of a room, each annotated with the
// caller's standing. Any room member may list; per-project access is still
// gated on open.
func (s *Server) handleListProjects(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "you are not a member of this room")
		return
	}

	projects, err := s.store.ListProjects(c.Request.Context(), room.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, projectView{Project: p, YourRole: authz.ProjectRole(p, identity(c))})
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": views})
}

// handleCreateProject creates a project inside a room. Any approved room
// member may create one; the creator may designate themselves leader.
func (s *Server) handleCreateProject(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "only room members can create projects")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("project title cannot be empty"))
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), room.ID, req.Title, req.Description, identity(c), req.Leader)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleGetProject returns a project to its leader and approved members.
// Pending and rejected identities are turned away.
func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.store.GetProject(c.Request.Context(), c.Param("roomID"), c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"project":    projectView{Project: project, YourRole: authz.ProjectRole(project, identity(c))},
		"assignable": authz.AssignableMembers(project),
	})
}

// handleRequestJoinProject records a self-service join request. The caller
// lands in the member set as pending until the leader decides. Distinct from
// room joining, which is immediate.
func (s *Server) handleRequestJoinProject(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "only room members can request to join a project")
		return
	}

	project, err := s.store.GetProject(c.Request.Context(), room.ID, c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if err := s.store.AddProjectMember(c.Request.Context(), project.ID, identity(c), models.MemberPending); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "pending"})
}

// handleAddProjectMember lets the leader add an identity. New members always
// start pending and are excluded from assignment until approved.
func (s *Server) handleAddProjectMember(c *gin.Context) {
	project, err := s.store.GetProject(c.Request.Context(), c.Param("roomID"), c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.CanManageMembers(project, identity(c)) {
		s.respondForbidden(c, "only the project leader can add members")
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("member email cannot be empty"))
		return
	}

	if err := s.store.AddProjectMember(c.Request.Context(), project.ID, req.Email, models.MemberPending); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": "pending"})
}

// handleSetProjectMemberStatus approves or rejects a pending member.
// Leader-only; the leader can never change their own standing.
func (s *Server) handleSetProjectMemberStatus(c *gin.Context) {
	project, err := s.store.GetProject(c.Request.Context(), c.Param("roomID"), c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.CanManageMembers(project, identity(c)) {
		s.respondForbidden(c, "only the project leader can approve or reject members")
		return
	}

	email := c.Param("email")
	if email == project.CreatorEmail {
		s.respondForbidden(c, "the project leader cannot change their own membership")
		return
	}

	var req memberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status != models.MemberApproved && req.Status != models.MemberRejected {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("status must be %q or %q", models.MemberApproved, models.MemberRejected))
		return
	}

	if err := s.store.SetProjectMemberStatus(c.Request.Context(), project.ID, email, req.Status); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": string(req.Status)})
}

// handleRemoveProjectMember drops a member from the project. Leader-only;
// the leader cannot remove themselves.
func (s *Server) handleRemoveProjectMember(c *gin.Context) {
	project, err := s.store.GetProject(c.Request.Context(), c.Param("roomID"), c.Param("projectID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.CanManageMembers(project, identity(c)) {
		s.respondForbidden(c, "only the project leader can remove members")
		return
	}

	email := c.Param("email")
	if email == project.CreatorEmail {
		s.respondForbidden(c, "the project leader cannot remove themselves")
		return
	}

	if err := s.store.RemoveProjectMember(c.Request.Context(), project.ID, email); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "removed"})
}
