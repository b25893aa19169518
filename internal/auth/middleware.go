package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity is the resolved caller for one request. It is placed in the gin
// context by RequireAuth and read back with IdentityFrom; nothing about the
// caller lives in package-level state.
type Identity struct {
	AccountID     string
	Email         string
	Role          string
	ParticipantID string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

const identityKey = "identity"

// RequireAuth enforces bearer JWT tokens signed with HS256 and resolves the
// caller identity.
func RequireAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		SetIdentity(c, Identity{
			AccountID:     claims.Subject,
			Email:         claims.Email,
			Role:          claims.Role,
			ParticipantID: claims.ParticipantID,
		})
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// SetIdentity stores the resolved caller on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity resolved by RequireAuth, or the zero
// value when the request is unauthenticated.
func IdentityFrom(c *gin.Context) Identity {
	val, _ := c.Get(identityKey)
	id, _ := val.(Identity)
	return id
}
