package middleware

import (
	"context"
	"net/http"
	"strings"

	"task_manager/internal/logger"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by Auth.
const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*service.Claims, error)
}

// Auth rejects the request with 401 unless it carries a valid "Bearer <token>" header.
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			AuthRejected.Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized, no token"})
			return
		}

		claims, err := v.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			AuthRejected.Inc()
			logger.WithContext(c.Request.Context()).Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized, token failed"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}
