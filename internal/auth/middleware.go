package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bridge_backend/internal/auth/service"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/platform/httpkit"
	"bridge_backend/platform/logger"
)

// RequireIdentity verifies the bearer token, resolves (or provisions) the
// local account, and stores the request identity in the gin context.
// Verification failures never touch the database: an account is only
// created for a token that checked out.
func RequireIdentity(v verifier.TokenVerifier, svc *service.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			httpkit.Error(c, http.StatusUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}

		ident, err := v.Verify(c.Request.Context(), raw)
		if err != nil {
			log.AuthEvent("token_rejected", "", false, err.Error())
			httpkit.Error(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		user, err := svc.EnsureUser(c.Request.Context(), ident)
		if err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(httpkit.ContextUserIDKey, user.ID)
		c.Set(httpkit.ContextRolesKey, user.Roles)
		c.Set(httpkit.ContextIdentityClaimsKey, ident)
		if user.AgentID != nil {
			c.Set(httpkit.ContextAgentIDKey, *user.AgentID)
		}
		c.Next()
	}
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
