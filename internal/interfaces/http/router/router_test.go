package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterPrefix(t *testing.T) {
	assert.Equal(t, "/api", NewRouter(gin.New()).Prefix())
	assert.Equal(t, "/api/v2", NewRouter(gin.New(), WithAPIVersion("v2")).Prefix())
	assert.Equal(t, "/api/v2", NewRouter(gin.New(), WithAPIVersion("/v2/")).Prefix())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("ping", "/ping").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/ping").Code)
}

func TestRouterMiddlewareAppliesToAPIOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-API", "1")
		c.Next()
	}))
	r.Register(NewDomainGroup("ping", "/ping").GET("", func(c *gin.Context) { c.Status(http.StatusOK) }))
	r.Setup()

	assert.Equal(t, "1", serve(engine, http.MethodGet, "/api/ping").Header().Get("X-API"))
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-API"))
}

func TestDomainGroupMethodsAndSubgroups(t *testing.T) {
	engine := gin.New()
	ok := func(body string) gin.HandlerFunc {
		return func(c *gin.Context) { c.String(http.StatusOK, body) }
	}

	payments := NewDomainGroup("payments", "/payments")
	payments.Group("customer-payments", "/customers").
		GET("", ok("list")).
		POST("", ok("create")).
		PUT("/:id", ok("update")).
		DELETE("/:id", ok("delete"))
	guarded := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }).
		GET("", ok("never"))

	r := NewRouter(engine)
	r.Register(payments).Register(guarded)
	r.Setup()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/payments/customers", "list"},
		{http.MethodPost, "/api/payments/customers", "create"},
		{http.MethodPut, "/api/payments/customers/1", "update"},
		{http.MethodDelete, "/api/payments/customers/1", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/guarded").Code)
	assert.Equal(t, "payments", payments.Name())
	assert.Equal(t, "/payments", payments.Prefix())
}
