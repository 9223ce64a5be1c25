package admin

import (
	"errors"
	"net/http"

	"agency-portal/internal/domain/activity"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAlerts returns unread alerts first. ?unread=true hides dismissed ones.
func (h *Handler) ListAlerts(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	alerts, err := h.journal.ListAlerts(c.Request.Context(), unreadOnly, queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alerts"})
		return
	}
	if alerts == nil {
		alerts = []activity.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) DismissAlert(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.journal.DismissAlert(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dismiss alert"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListProjectActivity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.journal.ListActivityByProject(c.Request.Context(), id, queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}
