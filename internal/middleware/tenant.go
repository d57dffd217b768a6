package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// tenantHeaders are consulted in order when auth did not set a tenant
var tenantHeaders = []string{"X-Vendor-ID", "X-Tenant-ID"}

// TenantMiddleware resolves the tenant every import session is scoped to.
// A tenant already set by IstioAuth wins over headers. Requests without a
// tenant are rejected.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		for _, h := range tenantHeaders {
			if tenantID != "" {
				break
			}
			tenantID = c.GetHeader(h)
		}

		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Tenant ID is required. Include X-Vendor-ID or X-Tenant-ID header.",
				},
			})
			return
		}

		c.Set("tenantId", tenantID)
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	if tid := c.GetString("tenant_id"); tid != "" {
		return tid
	}
	return c.GetString("tenantId")
}

// GetUserID retrieves the acting user ID from gin context
func GetUserID(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return uid
	}
	return c.GetString("userId")
}
