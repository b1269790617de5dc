package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, label)
	}
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// createTestPayments mirrors the shape of the payments resource
func createTestPayments() *DomainGroup {
	g := NewDomainGroup("payments", "/payments")
	g.POST("", ok("record"))
	g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	g.POST("/:id/confirm", ok("confirm"))
	g.PUT("/:id/receipt", ok("attach"))
	return g
}

func TestRouter_Setup(t *testing.T) {
	t.Run("mounts groups under the versioned prefix", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)
		r.Register(createTestPayments()).Setup()

		w := serve(engine, http.MethodPost, "/api/v1/payments/abc/confirm")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "confirm", w.Body.String())

		w = serve(engine, http.MethodGet, "/api/v1/payments/abc")
		assert.Equal(t, "abc", w.Body.String())

		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/payments/abc").Code)
	})

	t.Run("custom version", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithAPIVersion("v2"))
		r.Register(createTestPayments()).Setup()

		assert.Equal(t, "/api/v2", r.BasePath())
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPut, "/api/v2/payments/x/receipt").Code)
	})

	t.Run("api middleware skips engine-level routes", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health/live", ok("live"))
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

		r := NewRouter(engine, WithMiddleware(deny))
		r.Register(createTestPayments()).Setup()

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodPost, "/api/v1/payments").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health/live").Code)
	})

	t.Run("lists mounted routes", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health/live", ok("live"))
		r := NewRouter(engine)
		r.Register(createTestPayments()).Setup()

		assert.ElementsMatch(t, []string{
			"POST /api/v1/payments",
			"GET /api/v1/payments/:id",
			"POST /api/v1/payments/:id/confirm",
			"PUT /api/v1/payments/:id/receipt",
		}, r.Routes())
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("nested group", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("transactions", "/transactions")
		deletion := g.Group("deletion", "/:id/deletion-request")
		deletion.POST("", ok("request"))
		deletion.DELETE("", ok("cancel"))
		deletion.POST("/approve", ok("approve"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "request", serve(engine, http.MethodPost, "/api/v1/transactions/7/deletion-request").Body.String())
		assert.Equal(t, "cancel", serve(engine, http.MethodDelete, "/api/v1/transactions/7/deletion-request").Body.String())
		assert.Equal(t, "approve", serve(engine, http.MethodPost, "/api/v1/transactions/7/deletion-request/approve").Body.String())
		assert.Equal(t, "deletion", deletion.Name())
	})

	t.Run("group middleware stays inside the group", func(t *testing.T) {
		engine := gin.New()
		api := engine.Group("/api/v1")

		var hits int
		counted := NewDomainGroup("dispatches", "/dispatches").Use(func(c *gin.Context) {
			hits++
			c.Next()
		})
		counted.GET("", ok("dispatches"))
		counted.RegisterRoutes(api)

		plain := NewDomainGroup("payouts", "/payouts")
		plain.GET("/:id", ok("payout"))
		plain.RegisterRoutes(api)

		require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/dispatches").Code)
		require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/payouts/1").Code)
		assert.Equal(t, 1, hits)
	})
}
