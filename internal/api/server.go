// Package api exposes the tracker over HTTP: REST routes for projects and
// tasks, a server-sent-events stream for live updates, and Prometheus
// metrics. Handlers call into the store and publish a broadcast event after
// each successful mutation - never before the store has persisted it.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/pulseboard/internal/events"
	"github.com/roach88/pulseboard/internal/store"
)

// Server wires routes to the store and broadcaster.
type Server struct {
	store       *store.Store
	broadcaster *events.Broadcaster
	router      *gin.Engine
}

// NewServer builds the router. gin is run in release mode by the serve
// command; tests flip it to test mode.
func NewServer(st *store.Store, bc *events.Broadcaster) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), CORS(), Metrics())

	s := &Server{
		store:       st,
		broadcaster: bc,
		router:      router,
	}

	api := router.Group("/api")
	{
		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)
		api.DELETE("/projects/:id", s.handleDeleteProject)

		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
	}

	router.GET("/events", s.handleEvents)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s
}

// Handler returns the http.Handler for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}
