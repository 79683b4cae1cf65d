package auth

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the name of the cookie that stores the session token
const SessionCookieName = "journeyinbox_session"

// SetSessionCookie issues a session token for userID and stores it in a cookie.
func SetSessionCookie(c *gin.Context, issuer *TokenIssuer, userID uint) error {
	token, err := issuer.Generate(userID, PurposeSession)
	if err != nil {
		return err
	}

	secure := gin.Mode() != gin.DebugMode && gin.Mode() != gin.TestMode
	c.SetCookie(
		SessionCookieName,
		token,
		int(issuer.TTL(PurposeSession)/time.Second),
		"/",
		"",
		secure,
		true,
	)
	return nil
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}
