package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user's id.
const UserIDKey = "user_id"

// AuthMiddleware requires a valid session token, from the session cookie or
// an "Authorization: Bearer" header.
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := issuer.Validate(token, PurposeSession)
		if err != nil {
			ClearSessionCookie(c)
			msg := "invalid session, please log in again"
			if errors.Is(err, ErrExpiredToken) {
				msg = "session expired, please log in again"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session, please log in again"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the user set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
