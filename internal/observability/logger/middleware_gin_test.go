package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidRequestID(t *testing.T) {
	assert.True(t, validRequestID("req-1"))
	assert.True(t, validRequestID("a1b2:c3.d4_e5"))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID("line\nbreak"))
	assert.False(t, validRequestID(strings.Repeat("x", maxRequestIDLen+1)))
}

func TestGinMiddlewareEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinMiddleware(MiddlewareConfig{}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "kiosk-42")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "kiosk-42", rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "bad id with spaces")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	got := rec.Header().Get("X-Request-Id")
	assert.NotEqual(t, "bad id with spaces", got)
	assert.Len(t, got, 36)
}
