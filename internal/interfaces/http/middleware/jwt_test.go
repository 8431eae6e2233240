package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/infrastructure/auth"
	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokenService() *auth.TokenService {
	return auth.NewTokenService(config.AuthConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  "dinarbooks-test",
	})
}

func newJWTRouter(svc *auth.TokenService) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(JWTMiddlewareConfig{
		Verifier:  svc,
		SkipPaths: []string{"/health"},
	}))
	handler := func(c *gin.Context) {
		claims := GetJWTClaims(c)
		subject := ""
		if claims != nil {
			subject = claims.Subject
		}
		c.JSON(http.StatusOK, gin.H{
			"subject":     subject,
			"ctx_subject": logger.Subject(c.Request.Context()),
		})
	}
	router.GET("/api/sales", handler)
	router.GET("/health", handler)
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTokenService()
	token, err := svc.Issue("clerk-7", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newJWTRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"clerk-7","ctx_subject":"clerk-7"}`, rec.Body.String())
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTokenService()
	expired, err := svc.Issue("clerk", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "ERR_UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "ERR_UNAUTHORIZED"},
		{"empty bearer", "Bearer ", "ERR_UNAUTHORIZED"},
		{"garbage", "Bearer not-a-token", "ERR_TOKEN_INVALID"},
		{"expired", "Bearer " + expired, "ERR_TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newJWTRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestJWTAuth_SkipPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newJWTRouter(newTokenService()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
