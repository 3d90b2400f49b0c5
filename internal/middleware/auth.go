package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/auth"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/platterhub/service-booking/internal/response"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// AuthMiddleware validates the bearer token and stores the principal on the
// gin context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		p, err := claims.Principal()
		if err != nil {
			response.Unauthorized(c, "invalid token claims")
			return
		}

		c.Set(ctxUserID, p.ID)
		c.Set(ctxUserRole, p.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the principal has one of roles.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) (identity.Role, bool) {
	v, ok := c.Get(ctxUserRole)
	if !ok {
		return "", false
	}
	role, ok := v.(identity.Role)
	return role, ok
}

// GetPrincipal returns the authenticated principal.
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return identity.Principal{}, false
	}
	role, ok := GetUserRole(c)
	if !ok {
		return identity.Principal{}, false
	}
	return identity.Principal{ID: id, Role: role}, true
}
