package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/auth"
	"taskdesk/internal/model"
)

// ActorKey is the gin context key under which the authenticated actor is stored
const ActorKey = "actor"

// JWTAuthMiddleware extracts the acting user from the Authorization header
// and stores it in the request context for comment authorship and audit.
func JWTAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed token"})
			return
		}

		actor, err := auth.ParseToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor placed by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
