package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// PanicResponder writes the response for a request whose handler panicked
type PanicResponder func(c *gin.Context)

// Recovery catches panics and answers with the JSON error envelope
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return RecoveryWith(logger, respondPanicJSON)
}

// RecoveryWith catches panics, logs them with stack traces and lets respond write the answer.
// Routes called by the aggregator use it to keep their plain text contract.
func RecoveryWith(logger *slog.Logger, respond PanicResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.Request.Context(), "Panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", GetCorrelationID(c),
				)
				respond(c)
				c.Abort()
			}
		}()

		c.Next()
	}
}

func respondPanicJSON(c *gin.Context) {
	response := gin.H{
		"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.JSON(http.StatusInternalServerError, response)
}
