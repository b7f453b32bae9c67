package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/transport/http/response"
)

// RequireFeature answers 503 when the feature is switched off by configuration.
func RequireFeature(enabled bool, feature string, notices []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.ErrorWithData(c, http.StatusServiceUnavailable, response.CodeFeatureDisabled,
				feature+" is disabled by configuration",
				gin.H{"feature": feature, "notices": notices})
			c.Abort()
			return
		}
		c.Next()
	}
}
