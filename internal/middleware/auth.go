package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	CtxAdminID = "admin_id"
	CtxAdmin   = "admin"
)

// TokenAuthenticator resolves an access token to the admin it was issued for.
type TokenAuthenticator interface {
	Authenticate(accessToken string) (uuid.UUID, error)
}

// AdminAuth reads the access token from its cookie (falling back to a Bearer
// header for API clients) and puts the admin id into the context.
func AdminAuth(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := accessToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		adminID, err := auth.Authenticate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxAdminID, adminID)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AdminIDFromContext returns the id set by AdminAuth.
func AdminIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxAdminID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
