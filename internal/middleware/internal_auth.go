package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalAuth guards server-to-server routes (the AI analysis callback)
// with a shared key carried in X-Internal-Auth.
func InternalAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-Internal-Auth") != key {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
