package server

import (
	"net/http"
	"strings"
	"time"

	"taskhub/internal/db/models"
	"taskhub/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (s *Server) createProject(c *gin.Context) {
	var input struct {
		Title      string   `json:"title"`
		Visibility string   `json:"visibility"`
		BgColor    string   `json:"bg_color"`
		FontColor  string   `json:"font_color"`
		GuestUsers []string `json:"guest_users"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if input.Visibility == "" {
		input.Visibility = "private"
	}
	if input.Visibility != "public" && input.Visibility != "private" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be public or private"})
		return
	}

	order, err := s.projects.NextProjectOrder(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	project := &models.Project{
		ID:         uuid.New(),
		UserID:     actorFrom(c).ID,
		Title:      input.Title,
		Visibility: input.Visibility,
		BgColor:    input.BgColor,
		FontColor:  input.FontColor,
		GuestUsers: pq.StringArray(input.GuestUsers),
		PageOrder:  order,
		CreatedAt:  time.Now(),
	}
	if err := s.projects.CreateProject(c.Request.Context(), project); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) listProjects(c *gin.Context) {
	list, err := s.projects.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*models.Project{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) deleteProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uuid"})
		return
	}

	project, err := s.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if project == nil {
		respondError(c, tasks.ErrProjectNotFound)
		return
	}

	if err := s.projects.SoftDeleteProject(c.Request.Context(), id, time.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
