package authz

import (
	"net/http"

	"bridge_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// AdminOnly returns middleware gating a route group on the admin.access
// action. It runs after the auth middleware.
func AdminOnly(policy *Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}
		if !policy.Can(ActorFromIdentity(id), ActionAdminAccess, NoResource()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
