package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// authMiddleware validates the bearer token and threads the acting user
// into the request context as an explicit tasks.Actor. Token issuance and
// sessions belong to the identity provider, not this service.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(stringClaim(claims, "user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set(actorKey, tasks.Actor{
			ID:    userID,
			Name:  stringClaim(claims, "name"),
			Email: stringClaim(claims, "email"),
			Role:  stringClaim(claims, "role"),
		})
		c.Next()
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func actorFrom(c *gin.Context) tasks.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(tasks.Actor)
	return actor
}

// GenerateToken issues a bearer token for an actor. Used by tests and
// local tooling; production tokens come from the identity provider.
func GenerateToken(secret string, actor tasks.Actor) (string, error) {
	claims := jwt.MapClaims{
		"user_id": actor.ID.String(),
		"name":    actor.Name,
		"email":   actor.Email,
		"role":    actor.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, tasks.ErrProjectNotFound),
		errors.Is(err, tasks.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case tasks.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
