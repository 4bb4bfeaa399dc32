package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pingFrom(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":54321"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitPerIPIsolatesClients(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(1, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, pingFrom(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, pingFrom(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, pingFrom(r, "10.0.0.1"))

	// 其他来源的桶互不影响
	assert.Equal(t, http.StatusOK, pingFrom(r, "10.0.0.2"))
}
