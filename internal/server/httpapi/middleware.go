package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userKey      = "user"
	requestIDKey = "request_id"
)

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error(c.Request.Context(), "request failed", args...)
			return
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

// authenticate resolves the bearer token to a fresh user record. A missing
// token is 401; a bad token or a deleted account is 403.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if token == "" {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		user, err := s.accounts.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrNotFound):
			abort(c, http.StatusForbidden, "User not found")
			return
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
			abort(c, http.StatusForbidden, "Invalid or expired token")
			return
		default:
			s.logger.Error(c.Request.Context(), "authentication lookup failed", "error", err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// bearerToken returns the second space-separated field of the header.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
