package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-photo-service/internal/identity"
)

func setupAuthRouter(resolver identity.Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ViewerMiddleware(resolver))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"viewer_id": ViewerID(c)})
	})
	return r
}

func TestViewerMiddlewareResolvesBearer(t *testing.T) {
	resolver := identity.NewStaticResolver(map[string]string{"sess-1": "alice"})
	router := setupAuthRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"viewer_id":"alice"`)
}

func TestViewerMiddlewareAnonymousProceeds(t *testing.T) {
	router := setupAuthRouter(identity.NewStaticResolver(nil))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"viewer_id":""`)
}

func TestViewerMiddlewareIgnoresSelfAssertedIdentityHeaders(t *testing.T) {
	router := setupAuthRouter(identity.NewStaticResolver(nil))

	// Identity headers mean nothing without a resolvable credential.
	for _, header := range []string{"X-Guest-Id", "X-Viewer-Id", "X-User-Id"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(header, "alice")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"viewer_id":""`, "header %s must not set an identity", header)
	}
}

func TestViewerMiddlewareRejectsBadCredential(t *testing.T) {
	router := setupAuthRouter(identity.NewStaticResolver(map[string]string{"sess-1": "alice"}))

	for _, header := range []string{"Bearer nope", "Token sess-1", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}
