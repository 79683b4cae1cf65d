package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
	"journeyinbox/internal/services"
)

type accountResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	Verified   bool      `json:"verified"`
	DateJoined time.Time `json:"date_joined"`
}

func (h *Handler) toAccountResponse(account *models.Account) (accountResponse, error) {
	token, err := h.ids.Encode(account.ID)
	if err != nil {
		return accountResponse{}, err
	}
	resp := accountResponse{
		ID:       token,
		Status:   account.Status.String(),
		Verified: account.Verified,
	}
	if account.User != nil {
		resp.Email = account.User.Email
		resp.DateJoined = account.User.DateJoined
	}
	return resp, nil
}

// CreateAccount handles new user registration and mails the first login link.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.accounts.Signup(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignupsClosed):
			h.handleError(c, http.StatusForbidden, "Trial signups are currently closed", err)
		case errors.Is(err, repository.ErrEmailTaken):
			h.handleError(c, http.StatusConflict, "Email already registered", err)
		default:
			h.handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		}
		return
	}

	if err := h.login.SendLink(ctx, user.Email); err != nil {
		h.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to send login link after signup")
	}

	account, err := h.accounts.Account(ctx, user.ID)
	if err != nil || account == nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	resp, err := h.toAccountResponse(account)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetCurrentAccount returns the logged in user's account
func (h *Handler) GetCurrentAccount(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	account, err := h.accounts.Account(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	resp, err := h.toAccountResponse(account)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
