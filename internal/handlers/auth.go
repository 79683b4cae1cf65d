package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/events"
	"journeyinbox/internal/models"
)

// RequestLogin mails a login link. The response is the same whether or not
// the address has an account.
func (h *Handler) RequestLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if err := h.login.SendLink(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to send login link", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If that address has an account, a login link is on its way."})
}

// VerifyLogin redeems a login link, announces the login and starts a session.
func (h *Handler) VerifyLogin(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.login.Verify(ctx, token)
	if err != nil {
		msg := "Invalid login link"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "Login link has expired, please request a new one"
		}
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrExpiredToken) {
			status = http.StatusInternalServerError
			msg = "Failed to verify login link"
		}
		h.handleError(c, status, msg, err)
		return
	}

	h.bus.PublishLogin(ctx, events.UserLoggedIn{UserID: user.ID, At: h.now()})

	if err := auth.SetSessionCookie(c, h.tokens, user.ID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to create session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "email": user.Email})
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	auth.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
