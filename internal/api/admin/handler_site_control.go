package admin

import (
	"errors"
	"net/http"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
)

type siteControlRequest struct {
	IsLive           *bool `json:"is_live"`
	AutoPauseEnabled *bool `json:"auto_pause_enabled"`
}

type siteControlResponse struct {
	access.SiteControl
	State access.State `json:"state"`
}

func (h *Handler) GetSiteControl(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sc, err := h.siteControls.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load site control"})
		return
	}
	if sc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, siteControlResponse{SiteControl: *sc, State: sc.State()})
}

// UpdateSiteControl toggles auto-pause and/or the site's liveness. The
// liveness change runs first; the auto-pause flag is only written once it
// has succeeded.
func (h *Handler) UpdateSiteControl(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var body siteControlRequest
	if err := c.ShouldBindJSON(&body); err != nil || (body.IsLive == nil && body.AutoPauseEnabled == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide is_live and/or auto_pause_enabled"})
		return
	}

	ctx := c.Request.Context()
	logger := h.log.With().Str("project_id", id.String()).Logger()

	if body.IsLive != nil {
		res, err := h.access.SetManual(ctx, id, *body.IsLive)
		switch {
		case errors.Is(err, reconcile.ErrUnknownProject):
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		case errors.Is(err, reconcile.ErrControllerFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Vercel rejected the change; the site was not updated"})
			return
		case errors.Is(err, reconcile.ErrConcurrentUpdate), errors.Is(err, reconcile.ErrSiteBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "Site control changed concurrently; reload and retry"})
			return
		case errors.Is(err, access.ErrIllegalTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case err != nil:
			logger.Error().Err(err).Msg("manual site toggle failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update site"})
			return
		}
		logger.Info().
			Str("from", string(res.From)).
			Str("to", string(res.To)).
			Bool("controller_called", res.ControllerCalled).
			Msg("site toggled by admin")
	}

	if body.AutoPauseEnabled != nil {
		if err := h.siteControls.SetAutoPauseEnabled(ctx, id, *body.AutoPauseEnabled); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			logger.Error().Err(err).Msg("auto-pause update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update auto-pause"})
			return
		}
		logger.Info().Bool("auto_pause_enabled", *body.AutoPauseEnabled).Msg("auto-pause updated")
	}

	h.GetSiteControl(c)
}
