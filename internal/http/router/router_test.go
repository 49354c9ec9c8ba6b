package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "barops_backend/internal/http"
	"barops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string              { return ":0" }
func (testConfig) GetCORSAllowAll() bool            { return true }
func (testConfig) GetCORSOrigins() []string         { return nil }
func (testConfig) GetCORSAllowCreds() bool          { return false }
func (testConfig) GetRequestTimeout() time.Duration { return time.Second }
func (testConfig) GetJWTAccessSecret() string       { return "test-secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/public", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	ctx.Protected.GET("/private", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{},
		Logger:  logger.Nop(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func get(engine http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEngine(pinger{}), "/api/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newEngine(pinger{err: errors.New("down")}), "/api/health").Code)
}

func TestModuleRoutes(t *testing.T) {
	engine := newEngine(pinger{})

	public := get(engine, "/api/v1/public")
	assert.Equal(t, http.StatusNoContent, public.Code)
	assert.NotEmpty(t, public.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, get(engine, "/api/v1/private").Code)
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/admin/private").Code)
}
