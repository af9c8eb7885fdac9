package server

import (
	"net/http"

	"taskhub/internal/db/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) trackingReport(c *gin.Context) {
	period := c.DefaultQuery("period", "week")

	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a valid uuid"})
			return
		}
		userID = &uid
	}

	rows, err := s.svc.TrackingReport(c.Request.Context(), period, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "rows": rows})
}

func (s *Server) listNotifications(c *gin.Context) {
	list, err := s.notifications.ListNotifications(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	c.JSON(http.StatusOK, list)
}
