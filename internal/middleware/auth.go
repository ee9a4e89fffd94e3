package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/services"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// AuthMiddleware guards the group it is mounted on; public routes are
// registered outside that group.
func AuthMiddleware(identity services.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		// 2) читаем Authorization
		tokenStr, err := services.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		// 3) проверяем подпись и срок действия
		userID, err := identity.Resolve(tokenStr)
		if err != nil {
			log.Debugf("[auth][middleware] rejected token path=%s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 4) прокидываем user в контекст
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
