package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/constants"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
)

// RequireAuth rejects requests without a signed-in session and exposes the
// session's user id to handlers as a uint64.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, ok := toUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

// Session stores decode numbers differently (gob keeps uint64, JSON-backed
// stores yield float64), so every shape is accepted.
func toUserID(v interface{}) (uint64, bool) {
	switch id := v.(type) {
	case uint64:
		return id, id > 0
	case uint:
		return uint64(id), id > 0
	case int:
		if id <= 0 {
			return 0, false
		}
		return uint64(id), true
	case int64:
		if id <= 0 {
			return 0, false
		}
		return uint64(id), true
	case float64:
		if id <= 0 || id != float64(uint64(id)) {
			return 0, false
		}
		return uint64(id), true
	default:
		return 0, false
	}
}
