package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/authz"
)

type roomRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

// handleListRooms returns the rooms the caller belongs to.
func (s *Server) handleListRooms(c *gin.Context) {
	rooms, err := s.store.ListRoomsForUser(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"rooms": rooms})
}

// handleCreateRoom creates a new room owned by the caller.
func (s *Server) handleCreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("room name cannot be empty"))
		return
	}

	room, err := s.store.CreateRoom(c.Request.Context(), req.Name, identity(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"room": room})
}

// handleGetRoom returns a single room to its members.
func (s *Server) handleGetRoom(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "you are not a member of this room")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"room": room})
}

// handleRenameRoom changes the room name. Owner-only.
func (s *Server) handleRenameRoom(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomOwner(room, identity(c)) {
		s.respondForbidden(c, "only the room owner can rename the room")
		return
	}

	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("room name cannot be empty"))
		return
	}

	updated, err := s.store.RenameRoom(c.Request.Context(), room.ID, req.Name)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"room": updated})
}

// handleDeleteRoom hard-deletes a room and everything beneath it. Owner-only.
func (s *Server) handleDeleteRoom(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomOwner(room, identity(c)) {
		s.respondForbidden(c, "only the room owner can delete the room")
		return
	}

	if err := s.store.DeleteRoom(c.Request.Context(), room.ID); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleJoinRoom lets the caller join a room by its ID. Joining is
// self-service and immediate; rooms have no pending state.
func (s *Server) handleJoinRoom(c *gin.Context) {
	err := s.store.AddRoomMember(c.Request.Context(), c.Param("roomID"), identity(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "joined"})
}

// handleInviteRoomMember adds another identity to the room. Owner-only; the
// invitee is approved immediately.
func (s *Server) handleInviteRoomMember(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomOwner(room, identity(c)) {
		s.respondForbidden(c, "only the room owner can invite members")
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("member email cannot be empty"))
		return
	}

	if err := s.store.AddRoomMember(c.Request.Context(), room.ID, req.Email); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": "invited"})
}
