package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalSecretHeader carries the shared secret of the administration API
const InternalSecretHeader = "X-Internal-Secret"

// InternalAuth rejects requests whose X-Internal-Secret header differs from secret.
// An empty secret disables the check.
func InternalAuth(logger *slog.Logger, secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		provided := []byte(c.GetHeader(InternalSecretHeader))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			logger.WarnContext(c.Request.Context(), "Rejected internal API request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Unauthorized",
				},
				"correlation_id": GetCorrelationID(c),
			})
			return
		}
		c.Next()
	}
}
