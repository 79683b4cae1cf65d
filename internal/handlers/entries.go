package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/models"
)

// ExportEntries downloads all of the user's entries as a JSON file.
func (h *Handler) ExportEntries(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	entries, err := h.accounts.Export(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to export entries", err)
		return
	}

	today := models.LocalDate(h.now(), h.loc)
	filename := fmt.Sprintf("journeyinbox-%s.json", today.Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.JSON(http.StatusOK, entries)
}
