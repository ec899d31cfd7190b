package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"petition/internal/models"
)

type AdminLookup interface {
	GetAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error)
}

// RequireAdmin runs after AdminAuth and rejects tokens whose admin no longer
// exists. The loaded admin is stored under CtxAdmin.
func RequireAdmin(lookup AdminLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		id, ok := AdminIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no admin in context"})
			return
		}
		admin, err := lookup.GetAdmin(c.Request.Context(), id)
		if err != nil || admin == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(CtxAdmin, admin)
		c.Next()
	}
}
