package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop/internal/models"
	"eshop/internal/security"
)

const currentUserKey = "current_user"

type SessionParser interface {
	ParseSessionToken(token string) (*security.SessionClaims, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Auth loads the user named by the session cookie. Requests without a valid
// cookie are rejected with 401.
func Auth(cookieName string, sessions SessionParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			unauthorized(c)
			return
		}

		claims, err := sessions.ParseSessionToken(token)
		if err != nil {
			unauthorized(c)
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Please login to continue",
	})
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
