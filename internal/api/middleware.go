package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/auth"
	"lurnix/course-app/internal/domain"
)

// Constants for context keys
const (
	ContextSessionKey  = "session"
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// SessionMiddleware resolves the request identity once, trying the signed
// cookie token first and the delegated provider session second. Protected
// routes reject anonymous requests before any handler runs.
func SessionMiddleware(resolver auth.SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken, _ := c.Cookie(auth.CookieAuth)
		providerToken, _ := c.Cookie(auth.CookieProvider)

		session := resolver.Resolve(c.Request.Context(), authToken, providerToken)
		if session == nil {
			abortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextUserIDKey, session.UserID)
		c.Set(ContextUserRoleKey, session.Role)
		c.Next()
	}
}

// RoleMiddleware checks that the resolved session carries one of the allowed
// roles. Must run AFTER SessionMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}
		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		for _, allowed := range allowedRoles {
			if userRole == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get the resolved session from context.
func getSessionFromContext(c *gin.Context) (*auth.Session, error) {
	raw, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, errors.New("session not found in context")
	}
	session, ok := raw.(*auth.Session)
	if !ok {
		return nil, errors.New("invalid session type in context")
	}
	return session, nil
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}
