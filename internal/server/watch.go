package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskhive/internal/authz"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Identity is established by the trusted header, not by origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

const watchWriteTimeout = 10 * time.Second

// handleWatchTasks upgrades to a WebSocket and streams full snapshots of a
// project's task list: one immediately, then one per change. A snapshot
// always replaces the subscriber's working set wholesale; no partial merges
// are ever sent.
func (s *Server) handleWatchTasks(c *gin.Context) {
	project, ok := s.projectFor(c)
	if !ok {
		return
	}
	if !authz.CanAccessProject(project, identity(c)) {
		s.respondForbidden(c, "you are not an approved member of this project")
		return
	}

	s.serveWatch(c, taskTopic(project.RoomID, project.ID), func() (any, error) {
		tasks, err := s.store.ListTasks(c.Request.Context(), project.ID)
		if err != nil {
			return nil, err
		}
		return gin.H{"tasks": viewTasks(tasks, time.Now())}, nil
	})
}

// handleWatchChat streams full snapshots of the flat per-task chat feed.
func (s *Server) handleWatchChat(c *gin.Context) {
	room, err := s.store.GetRoom(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !authz.IsRoomMember(room, identity(c)) {
		s.respondForbidden(c, "you are not a member of this room")
		return
	}

	taskID := c.Param("taskID")
	s.serveWatch(c, chatTopic(room.ID, taskID), func() (any, error) {
		messages, err := s.store.ListChatMessages(c.Request.Context(), room.ID, taskID)
		if err != nil {
			return nil, err
		}
		return gin.H{"messages": messages}, nil
	})
}

// serveWatch runs one subscription: upgrade, snapshot now, snapshot again on
// every hub notification, and release the subscription when the peer goes
// away so stale-scope updates never land in a torn-down view.
func (s *Server) serveWatch(c *gin.Context, topic string, snapshot func() (any, error)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(topic)
	defer sub.Cancel()

	// Drain the read side purely to learn when the peer disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		payload, err := snapshot()
		if err != nil {
			s.logger.Error("snapshot failed", slog.String("topic", topic), slog.String("error", err.Error()))
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-sub.C:
			if !send() {
				return
			}
		}
	}
}
