package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled single-page frontend when one is
// configured. The API works without it; rendering is an external concern and
// the service is useful headless.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Info("no static directory configured; running API only")
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("static directory has no index.html; running API only", "path", s.staticDir)
		return
	}

	s.engine.StaticFS("/assets", gin.Dir(filepath.Join(s.staticDir, "assets"), false))
	s.engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	// Client-side routes fall back to the SPA entry point.
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	})
}
