package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant": GetTenantID(c),
			"user":   GetUserID(c),
			"staff":  c.GetString("staff_id"),
		})
	})
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantMiddleware_RequiresTenant(t *testing.T) {
	w := get(setupRouter(TenantMiddleware()), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TENANT_REQUIRED")
}

func TestTenantMiddleware_HeaderPrecedence(t *testing.T) {
	r := setupRouter(TenantMiddleware())

	w := get(r, map[string]string{"X-Tenant-ID": "legacy"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant":"legacy"`)

	w = get(r, map[string]string{"X-Vendor-ID": "vendor", "X-Tenant-ID": "legacy"})
	assert.Contains(t, w.Body.String(), `"tenant":"vendor"`)
}

func TestTenantMiddleware_KeepsTenantFromAuth(t *testing.T) {
	preset := func(c *gin.Context) {
		c.Set("tenant_id", "from-jwt")
		c.Next()
	}

	w := get(setupRouter(preset, TenantMiddleware()), map[string]string{"X-Tenant-ID": "spoofed"})

	assert.Contains(t, w.Body.String(), `"tenant":"from-jwt"`)
}

func TestDevelopmentAuthMiddleware(t *testing.T) {
	r := setupRouter(DevelopmentAuthMiddleware())

	w := get(r, nil)
	assert.Contains(t, w.Body.String(), `"user":"`+DevUserID+`"`)
	assert.Contains(t, w.Body.String(), `"staff":"`+DevUserID+`"`)

	w = get(r, map[string]string{"X-User-ID": "user-7"})
	assert.Contains(t, w.Body.String(), `"user":"user-7"`)
}
