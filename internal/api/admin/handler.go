package admin

import (
	"context"
	"net/http"
	"strconv"

	"agency-portal/internal/infra/vercel"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultListLimit = 100

// SiteAccess applies admin pause and resume through the access state machine.
type SiteAccess interface {
	SetManual(ctx context.Context, projectID uuid.UUID, live bool) (*reconcile.TransitionResult, error)
}

type VercelProjects interface {
	ListProjects(ctx context.Context) ([]vercel.Project, error)
}

type Handler struct {
	access       SiteAccess
	vercel       VercelProjects
	directory    *repository.DirectoryRepository
	siteControls *repository.SiteControlRepository
	journal      *repository.JournalRepository
	log          zerolog.Logger
}

func NewHandler(
	access SiteAccess,
	vercelProjects VercelProjects,
	directory *repository.DirectoryRepository,
	siteControls *repository.SiteControlRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		access:       access,
		vercel:       vercelProjects,
		directory:    directory,
		siteControls: siteControls,
		journal:      journal,
		log:          log,
	}
}

func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.directory.ListClients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load clients"})
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *Handler) ListVercelProjects(c *gin.Context) {
	list, err := h.vercel.ListProjects(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("listing vercel projects failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load Vercel projects"})
		return
	}
	if list == nil {
		list = []vercel.Project{}
	}
	c.JSON(http.StatusOK, list)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
