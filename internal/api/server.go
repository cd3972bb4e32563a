// Package api implements the gateway's HTTP surface: an OpenAI-shaped
// chat completions endpoint, a models catalogue, health/refresh
// operational endpoints, and a small landing page, wired together with
// gin the way the teacher repo wires its HTTP surface.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tingly-dev/qwenbridge/internal/applog"
	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/orchestrator"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// Server holds everything the HTTP handlers need.
type Server struct {
	Pool         *identity.Pool
	Upstream     *upstream.Client
	Orchestrator *orchestrator.Orchestrator
	RecentLogs   *applog.RecentHook
	StartedAt    time.Time
	Version      string
}

// Router builds the gin engine with every route and middleware wired.
func (s *Server) Router(serverAPIKey string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	r.GET("/", s.Landing)
	r.GET("/health", s.Health)
	r.POST("/refresh-token", ServerAuth(serverAPIKey), s.RefreshToken)

	v1 := r.Group("/v1", ServerAuth(serverAPIKey), ClientCredentials())
	v1.GET("/models", s.Models)
	v1.POST("/chat/completions", s.ChatCompletions)

	return r
}
