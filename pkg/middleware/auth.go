package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"

	// RoleAdmin may override cancellation windows and recalculate fares.
	RoleAdmin = "admin"
	// RoleConductor may verify tickets at boarding.
	RoleConductor = "conductor"
	// RolePassenger is the default authenticated role.
	RolePassenger = "passenger"
)

// Claims is the JWT payload issued by the auth service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the actor identity on
// the request context for audit entries.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.AppErrorResponse(c, common.NewUnauthorizedError("missing bearer token"))
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.AppErrorResponse(c, common.NewUnauthorizedError("invalid token"))
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		role := claims.Role
		if role == "" {
			role = RolePassenger
		}
		c.Set(userRoleKey, role)

		c.Next()
	}
}

// RequireRole guards a route group to the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		common.AppErrorResponse(c, common.NewForbiddenError("insufficient role"))
		c.Abort()
	}
}

// GetUserID extracts the authenticated user id from gin context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, common.NewUnauthorizedError("not authenticated")
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, common.NewUnauthorizedError("invalid user id in token")
	}
	return id, nil
}

// GetUserRole extracts the authenticated role from gin context.
func GetUserRole(c *gin.Context) string {
	if role, exists := c.Get(userRoleKey); exists {
		if s, ok := role.(string); ok {
			return s
		}
	}
	return ""
}

// IsAdmin reports whether the authenticated actor is an admin.
func IsAdmin(c *gin.Context) bool {
	return GetUserRole(c) == RoleAdmin
}
