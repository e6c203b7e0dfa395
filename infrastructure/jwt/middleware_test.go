package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/sivakumaru2002/devops-ease-access/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(jwt.Middleware(testSecret))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/projects", func(c *gin.Context) {
		claims, ok := jwt.GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Sub)
	})
	return router
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()

	claims := jwt.Claims{
		Sub: "dashboard",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func serve(t *testing.T, router *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, path, http.NoBody)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_HealthIsPublic(t *testing.T) {
	w := serve(t, newRouter(), "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	w := serve(t, newRouter(), "/api/projects", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_WrongSecret(t *testing.T) {
	w := serve(t, newRouter(), "/api/projects", "Bearer "+signedToken(t, "other"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_ValidToken(t *testing.T) {
	w := serve(t, newRouter(), "/api/projects", "Bearer "+signedToken(t, testSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dashboard", w.Body.String())
}
