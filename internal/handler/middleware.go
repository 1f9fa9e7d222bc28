package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/ratelimit"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
)

const userIDKey = "userId"

// RequestLogger tags every request with an id and logs method, path,
// status and latency on completion.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	requestLog := log.WithComponent("http")
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		requestLog.Info("Request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// AuthRequired rejects requests without a valid bearer token and puts
// the user id into the gin context.
func AuthRequired(auth service.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when present but lets anonymous
// requests through as guests. A present-but-invalid token is still a 401
// so a client with a stale token notices instead of silently placing a
// guest order.
func OptionalAuth(auth service.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		userID, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// AdminOnly gates admin routes behind an env-configured token header.
func AdminOnly(adminToken string, log *logger.Logger) gin.HandlerFunc {
	adminLog := log.WithComponent("admin_auth")
	return func(c *gin.Context) {
		if adminToken == "" {
			adminLog.Warn("Admin route hit but no admin token configured")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access disabled"})
			return
		}
		if c.GetHeader("X-Admin-Token") != adminToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access denied"})
			return
		}
		c.Next()
	}
}

// RateLimit gates the wrapped route per actor: the authenticated user id
// when present, the client IP otherwise. Runs after OptionalAuth.
func RateLimit(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	limitLog := log.WithComponent("rate_limit")
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := currentUserID(c); ok {
			key = "user:" + strconv.FormatInt(userID, 10)
		}

		allowed, retryAfter := limiter.Allow(c.Request.Context(), key)
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			limitLog.Warn("Request rate limited", "key", key, "retry_after_s", seconds)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("too many order attempts, retry in %ds", seconds),
			})
			return
		}
		c.Next()
	}
}

// currentUserID reads the authenticated user id set by the auth
// middleware, reporting whether one is present.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
