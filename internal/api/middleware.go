package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/utils"
)

const (
	ctxJWTSecret = "jwtSecret"
	ctxUserID    = "userId"
	ctxRequestID = "requestId"

	headerRequestID  = "X-Request-ID"
	headerAdminToken = "X-Admin-Token"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "digiplay",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "digiplay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// JWTSecretMiddleware makes the signing secret available to AuthMiddleware
func JWTSecretMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		c.Set(ctxJWTSecret, key)
		c.Next()
	}
}

// AuthMiddleware returns a Gin middleware for authentication
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}

		jwtSecret := c.MustGet(ctxJWTSecret).([]byte)
		userID, err := service.ParseAccessToken(tokenString, jwtSecret)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		// Set user ID in the context
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// AdminMiddleware admits operator requests carrying the configured admin
// token in X-Admin-Token. With no token configured every request is refused.
func AdminMiddleware(adminToken string) gin.HandlerFunc {
	want := []byte(adminToken)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(headerAdminToken))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Status:  "error",
				Code:    CodeForbidden,
				Message: "Operator access required",
			})
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user id when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			jwtSecret := c.MustGet(ctxJWTSecret).([]byte)
			if userID, err := service.ParseAccessToken(tokenString, jwtSecret); err == nil {
				c.Set(ctxUserID, userID)
			}
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket requests, so the access_token query parameter is accepted too.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("access_token")
		return token, token != ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    CodeUnauthorized,
		Message: message,
	})
}

// RequestIDMiddleware tags every request with an id, reusing the client's
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request
func LoggerMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(ctxRequestID),
		}
		if userID := c.GetString(ctxUserID); userID != "" {
			keyvals = append(keyvals, "user", userID)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", keyvals...)
		} else {
			logger.Info("request", keyvals...)
		}
	}
}

// MetricsMiddleware records request counts and latency by route template
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
