package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/authz"
)

type commentRequest struct {
	Text string `json:"text"`
}

func chatTopic(roomID, taskID string) string {
	return "rooms/" + roomID + "/tasks/" + taskID + "/chat"
}

// handleListComments returns a task's embedded discussion in append order.
func (s *Server) handleListComments(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), project.ID, c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": task.Comments})
}

// handleAddComment appends one comment to a task. Comments are append-only;
// there is no edit or per-comment delete.
func (s *Server) handleAddComment(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanPerformTaskActions(project, identity(c)) {
		s.respondForbidden(c, "only approved project members or the leader can add comments")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("comment text cannot be empty"))
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), project.ID, c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	comment, err := s.store.AddComment(c.Request.Context(), task.ID, req.Text, identity(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(taskTopic(project.RoomID, project.ID))
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleListChat returns the flat per-task discussion feed. Chat is scoped
// by room, not project; any room member may read it.
func (s *Server) handleListChat(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "you are not a member of this room")
		return
	}

	messages, err := s.store.ListChatMessages(c.Request.Context(), room.ID, c.Param("taskID"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"messages": messages})
}

// handleSendChat appends one message to the feed and notifies watchers.
func (s *Server) handleSendChat(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "you are not a member of this room")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("message text cannot be empty"))
		return
	}

	message, err := s.store.AddChatMessage(c.Request.Context(), room.ID, c.Param("taskID"), req.Text, identity(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.hub.Publish(chatTopic(room.ID, message.TaskID))
	respondSuccess(c, http.StatusCreated, gin.H{"message": message})
}
