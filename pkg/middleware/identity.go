package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Identity keys set on the gin context. Authentication itself is an external
// collaborator (reverse proxy / auth service); this layer only trusts the
// headers it forwards.
const (
	UserIDField    = "user_id"
	UserEmailField = "user_email"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Identity parses the forwarded identity headers when present. It never
// rejects; use RequireIdentity on routes that need an authenticated caller.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(HeaderUserID); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				c.Set(UserIDField, uint(id))
			}
		}
		if email := c.GetHeader(HeaderUserEmail); email != "" {
			c.Set(UserEmailField, email)
		}
		c.Next()
	}
}

// RequireIdentity aborts unauthenticated requests with 401 and no body.
func RequireIdentity(c *gin.Context) {
	if _, ok := c.Get(UserIDField); !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}

// UserID returns the authenticated user id, or 0 when the request carries
// none.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(UserIDField); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// UserEmail returns the forwarded email, which monitor authorization matches
// against emergency contacts.
func UserEmail(c *gin.Context) string {
	return c.GetString(UserEmailField)
}
