package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, tokens *utils.TokenManager, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	engine := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(tokens)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, p)
	})
	engine.GET("/me", handlers...)
	return engine
}

func TestAuthMiddleware(t *testing.T) {
	tokens, err := utils.NewTokenManager("secret", time.Hour)
	require.NoError(t, err)
	token, err := tokens.GenerateAccessToken("u1", "owner@test.dev", models.RoleRestaurantOwner, "t1")
	require.NoError(t, err)
	engine := newEngine(t, tokens)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"restaurant_id":"t1"`)
			}
		})
	}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens, err := utils.NewTokenManager("secret", time.Hour)
	require.NoError(t, err)
	engine := newEngine(t, tokens, RoleAuthMiddleware(models.RoleSuperAdmin))

	owner, _ := tokens.GenerateAccessToken("u1", "owner@test.dev", models.RoleRestaurantOwner, "t1")
	admin, _ := tokens.GenerateAccessToken("u2", "admin@test.dev", models.RoleSuperAdmin, "")

	for token, status := range map[string]int{owner: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code)
	}
}

func TestWebhookSecretMiddleware(t *testing.T) {
	serve := func(secret string, header http.Header) int {
		engine := gin.New()
		engine.POST("/hook", WebhookSecretMiddleware(secret), func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		req.Header = header
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("", http.Header{}))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", http.Header{}))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", http.Header{WebhookSecretHeader: {"wrong"}}))
	assert.Equal(t, http.StatusOK, serve("s3cret", http.Header{WebhookSecretHeader: {"s3cret"}}))
	assert.Equal(t, http.StatusOK, serve("s3cret", http.Header{"Authorization": {"Bearer s3cret"}}))
}
