package server

import (
	"context"
	"time"

	"taskhub/internal/db/models"
	"taskhub/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProjectStore is the slice of the storage layer the project endpoints
// need.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	NextProjectOrder(ctx context.Context) (int, error)
	SoftDeleteProject(ctx context.Context, id uuid.UUID, at time.Time) error
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
}

type Server struct {
	svc           *tasks.Service
	projects      ProjectStore
	notifications NotificationStore
	jwtSecret     []byte
	router        *gin.Engine
}

func New(svc *tasks.Service, projects ProjectStore, notifications NotificationStore, jwtSecret string) *Server {
	s := &Server{
		svc:           svc,
		projects:      projects,
		notifications: notifications,
		jwtSecret:     []byte(jwtSecret),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.Default()

	api := r.Group("/", s.authMiddleware())

	api.POST("/tasks", s.createTask)
	api.GET("/tasks", s.listTasks)
	api.GET("/tasks/:id", s.getTask)
	api.PUT("/tasks/:id", s.updateTask)
	api.POST("/tasks/:id/status", s.setStatus)
	api.POST("/tasks/:id/tracking/start", s.startTracking)
	api.POST("/tasks/:id/tracking/stop", s.stopTracking)
	api.POST("/tasks/:id/tracking/end-admin", s.endTrackingAdmin)
	api.GET("/tasks/:id/tracked-time", s.trackedTime)

	api.GET("/reports/tracking", s.trackingReport)
	api.GET("/notifications", s.listNotifications)

	api.POST("/projects", s.createProject)
	api.GET("/projects", s.listProjects)
	api.DELETE("/projects/:id", s.deleteProject)

	return r
}
