package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"event-photo-service/internal/identity"
)

// ViewerContextKey is the gin context key holding the resolved viewer id.
const ViewerContextKey = "viewerID"

// ViewerMiddleware resolves an optional viewer identity. A presented
// bearer credential must resolve; a request without one proceeds as an
// anonymous guest. A viewer id only ever enters the context through the
// resolver, so it cannot be self-asserted by a header. Guests read feeds
// via the share token alone.
func ViewerMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		viewerID, err := resolver.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}

		c.Set(ViewerContextKey, viewerID)
		c.Next()
	}
}

// ViewerID returns the resolved viewer id, empty for anonymous guests.
func ViewerID(c *gin.Context) string {
	return c.GetString(ViewerContextKey)
}
