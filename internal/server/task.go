package server

import (
	"net/http"

	"taskhub/internal/db/models"
	"taskhub/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) createTask(c *gin.Context) {
	var input tasks.TaskInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ID = nil

	task, err := s.svc.CreateOrUpdateTask(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uuid"})
		return
	}

	var input tasks.TaskInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ID = &id

	task, err := s.svc.CreateOrUpdateTask(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) getTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uuid"})
		return
	}

	task, err := s.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	subs, err := s.svc.SubTasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if subs == nil {
		subs = []*models.SubTask{}
	}
	c.JSON(http.StatusOK, gin.H{"task": task, "subtasks": subs})
}

func (s *Server) listTasks(c *gin.Context) {
	projectID := uuid.Nil
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_id must be a valid uuid"})
			return
		}
		projectID = id
	}

	list, err := s.svc.ListTasks(c.Request.Context(), projectID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*models.Task{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) setStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uuid"})
		return
	}

	var body struct {
		Status models.Status `json:"status"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := s.svc.SetStatus(c.Request.Context(), actorFrom(c), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
