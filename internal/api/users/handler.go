package users

import (
	"net/http"

	"agency-portal/internal/app/http/middleware"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
)

const portalActivityLimit = 50

type Handler struct {
	directory *repository.DirectoryRepository
	journal   *repository.JournalRepository
}

func NewHandler(directory *repository.DirectoryRepository, journal *repository.JournalRepository) *Handler {
	return &Handler{directory: directory, journal: journal}
}

type meResponse struct {
	Profile    *profiles.Profile  `json:"profile"`
	HasBilling bool               `json:"has_billing"`
	Projects   []projects.Project `json:"projects"`
}

// GetCurrentUser returns the caller's profile and projects.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	profile, err := h.directory.GetProfile(ctx, callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	list, err := h.directory.ListProjectsByClient(ctx, profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}
	if list == nil {
		list = []projects.Project{}
	}

	c.JSON(http.StatusOK, meResponse{
		Profile:    profile,
		HasBilling: profile.HasBilling(),
		Projects:   list,
	})
}

// ListMyActivity is the client's timeline across all of their projects.
func (h *Handler) ListMyActivity(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entries, err := h.journal.ListActivityByClient(c.Request.Context(), callerID, portalActivityLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}
