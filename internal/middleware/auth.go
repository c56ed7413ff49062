package middleware

import (
	"strings"

	"healthcare-portal/internal/models"
	"healthcare-portal/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextUserID      = "userID"
	contextUserRole    = "userRole"
	contextBearerToken = "bearerToken"
)

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		role, ok := models.ParseRole(claims.Role)
		if !ok {
			utils.Forbidden(c, "Unsupported role: "+claims.Role)
			c.Abort()
			return
		}

		// Set user information in context for downstream handlers
		c.Set(contextUserID, claims.UserID)
		c.Set(contextUserRole, role)
		c.Set(contextBearerToken, tokenString)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetUserRoleFromContext(c)
		if !exists {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user's ID.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// GetUserRoleFromContext returns the authenticated user's normalized role.
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get(contextUserRole)
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}

// GetViewerFromContext returns the authenticated viewer.
func GetViewerFromContext(c *gin.Context) (models.Viewer, bool) {
	id, ok := GetUserIDFromContext(c)
	if !ok {
		return models.Viewer{}, false
	}
	role, ok := GetUserRoleFromContext(c)
	if !ok {
		return models.Viewer{}, false
	}
	return models.Viewer{UserID: id, Role: role}, true
}

// GetBearerTokenFromContext returns the raw token the viewer authenticated with.
func GetBearerTokenFromContext(c *gin.Context) string {
	return c.GetString(contextBearerToken)
}
