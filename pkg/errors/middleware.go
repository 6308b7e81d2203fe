package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"agent-chat-relay/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler returns a middleware that catches and formats application errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Get the first error
		err := c.Errors[0].Err

		// Convert to AppError if it's not already
		appErr := FromError(err)

		// Log the error before converting it into a response
		log := logger.FromContext(c)
		log.Error("Request error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
			"message", appErr.Message,
			"details", appErr.Details,
		)

		body := gin.H{"error": appErr.Message}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.AbortWithStatusJSON(appErr.StatusCode, body)
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics,
// logs them, and responds with a generic 500 carrying no internal detail
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				log := logger.FromContext(c)
				log.Error("Panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
