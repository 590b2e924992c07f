package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/pulseboard/internal/events"
	"github.com/roach88/pulseboard/internal/model"
	"github.com/roach88/pulseboard/internal/store"
)

func (s *Server) handleListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListProjects())
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := s.store.CreateProject(req.Name)
	if err != nil {
		s.internalError(c, "create project", err)
		return
	}

	s.publish(events.TypeProjectChanged, events.ChangePayload{
		Action:  events.ActionAdd,
		Project: &project,
	})
	c.JSON(http.StatusCreated, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id := c.Param("id")

	removed, err := s.store.DeleteProject(id)
	if err != nil {
		s.internalError(c, "delete project", err)
		return
	}

	// Delete is idempotent: a missing project still reports success, and
	// the event carries at least the id so listeners can drop local state.
	project := removed
	if project == nil {
		project = &model.Project{ID: id}
	}
	s.publish(events.TypeProjectChanged, events.ChangePayload{
		Action:  events.ActionDelete,
		Project: project,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListTasks(c.Query("projectId")))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var draft model.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := s.store.CreateTask(draft)
	if err != nil {
		s.internalError(c, "create task", err)
		return
	}

	s.publish(events.TypeTaskChanged, events.ChangePayload{
		Action: events.ActionAdd,
		Task:   &task,
	})
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := s.store.UpdateTask(c.Param("id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		s.internalError(c, "update task", err)
		return
	}

	s.publish(events.TypeTaskChanged, events.ChangePayload{
		Action: events.ActionUpdate,
		Task:   &task,
	})
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	task, err := s.store.DeleteTask(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		s.internalError(c, "delete task", err)
		return
	}

	s.publish(events.TypeTaskChanged, events.ChangePayload{
		Action: events.ActionDelete,
		Task:   &task,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// publish runs after the store call has returned, i.e. after the mutation
// persisted; subscribers never see an event for state that failed to write.
func (s *Server) publish(eventType string, payload events.ChangePayload) {
	if err := s.broadcaster.Publish(eventType, payload); err != nil {
		slog.Error("publishing event", "type", eventType, "error", err)
	}
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	slog.Error(op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
