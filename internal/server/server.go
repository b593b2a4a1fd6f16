package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskhive/internal/storage/sqlite"
	"taskhive/internal/watch"
)

// identityHeader carries the authenticated identity. Credentials are managed
// by the identity provider in front of this service; the header is trusted.
const identityHeader = "X-User-Email"

const identityKey = "identity"

// Server provides the HTTP handlers for the TaskHive backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	hub       *watch.Hub
	logger    *slog.Logger
	staticDir string

	metrics  *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, hub *watch.Hub, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = watch.NewHub()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:    router,
		store:     store,
		hub:       hub,
		logger:    logger,
		staticDir: staticDir,
		metrics:   prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhive_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	srv.metrics.MustRegister(srv.requests, srv.latency)

	router.Use(srv.observe())
	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API, metrics and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)

	authed := api.Group("")
	authed.Use(s.requireIdentity())
	{
		authed.GET("/me", s.handleMe)

		rooms := authed.Group("/rooms")
		{
			rooms.GET("", s.handleListRooms)
			rooms.POST("", s.handleCreateRoom)
			rooms.GET(":roomID", s.handleGetRoom)
			rooms.PUT(":roomID", s.handleRenameRoom)
			rooms.DELETE(":roomID", s.handleDeleteRoom)
			rooms.POST(":roomID/join", s.handleJoinRoom)
			rooms.POST(":roomID/members", s.handleInviteRoomMember)

			rooms.GET(":roomID/projects", s.handleListProjects)
			rooms.POST(":roomID/projects", s.handleCreateProject)
			rooms.GET(":roomID/projects/:projectID", s.handleGetProject)
			rooms.POST(":roomID/projects/:projectID/join", s.handleRequestJoinProject)
			rooms.POST(":roomID/projects/:projectID/members", s.handleAddProjectMember)
			rooms.PUT(":roomID/projects/:projectID/members/:email", s.handleSetProjectMemberStatus)
			rooms.DELETE(":roomID/projects/:projectID/members/:email", s.handleRemoveProjectMember)

			rooms.GET(":roomID/projects/:projectID/tasks", s.handleListTasks)
			rooms.POST(":roomID/projects/:projectID/tasks", s.handleCreateTask)
			rooms.GET(":roomID/projects/:projectID/tasks/watch", s.handleWatchTasks)
			rooms.PUT(":roomID/projects/:projectID/tasks/:taskID", s.handleUpdateTask)
			rooms.PUT(":roomID/projects/:projectID/tasks/:taskID/status", s.handleSetTaskStatus)
			rooms.POST(":roomID/projects/:projectID/tasks/:taskID/approve", s.handleApproveTask)
			rooms.POST(":roomID/projects/:projectID/tasks/:taskID/reject", s.handleRejectTask)
			rooms.DELETE(":roomID/projects/:projectID/tasks/:taskID", s.handleDeleteTask)

			rooms.GET(":roomID/projects/:projectID/tasks/:taskID/comments", s.handleListComments)
			rooms.POST(":roomID/projects/:projectID/tasks/:taskID/comments", s.handleAddComment)

			rooms.GET(":roomID/tasks/:taskID/chat", s.handleListChat)
			rooms.POST(":roomID/tasks/:taskID/chat", s.handleSendChat)
			rooms.GET(":roomID/tasks/:taskID/chat/watch", s.handleWatchChat)
		}

		authed.GET("/tasks", s.handleListTasksAcrossRooms)
		authed.GET("/reports/summary", s.handleReportSummary)
		authed.GET("/reports/board", s.handleReportBoard)
	}

	s.mountStatic()
}

// requireIdentity resolves the caller's identity from the trusted header and
// records it on first sight.
func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader(identityHeader)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		if err := s.store.EnsureUser(c.Request.Context(), email); err != nil {
			s.logger.Error("ensure user", slog.String("error", err.Error()))
		}
		c.Set(identityKey, email)
		c.Next()
	}
}

// identity returns the authenticated identity set by requireIdentity.
func identity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// observe records request counts and latency per route.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(s.latency.WithLabelValues(c.Request.Method, c.FullPath()))
		c.Next()
		timer.ObserveDuration()
		s.requests.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMe returns the caller's identity and global display role. The role
// is carried for display only and gates nothing.
func (s *Server) handleMe(c *gin.Context) {
	email := identity(c)
	role, err := s.store.UserRole(c.Request.Context(), email)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"email": email, "role": role})
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondStoreError maps storage failures onto the error taxonomy: missing
// documents are 404, duplicate membership is 409, everything else surfaces
// as a bad mutation.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		s.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, sqlite.ErrAlreadyMember):
		s.respondError(c, http.StatusConflict, err)
	default:
		s.respondError(c, http.StatusBadRequest, err)
	}
}

// respondForbidden rejects an action with the message naming the required
// role, before any store mutation is attempted.
func (s *Server) respondForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{"error": message})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
