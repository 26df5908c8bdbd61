package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/storage/postgres"
)

// RunManager is the slice of the snapshot manager the handler needs.
type RunManager interface {
	StartRun(ctx context.Context, opts snapshots.RunOptions) (*snapshots.Run, error)
	GetRun(ctx context.Context, id string) (*snapshots.Run, error)
}

// SnapshotStore serves the latest stored rows per provider.
type SnapshotStore interface {
	LatestAWS(ctx context.Context, region string, limit int) ([]postgres.AWSPriceRow, error)
	LatestAzure(ctx context.Context, region string, limit int) ([]postgres.AzurePriceRow, error)
}

// Handler exposes snapshot refresh and query routes.
type Handler struct {
	mgr   RunManager
	store SnapshotStore
}

func NewHandler(mgr RunManager, store SnapshotStore) *Handler {
	return &Handler{mgr: mgr, store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/refresh", h.refresh)
	rg.GET("/runs/:id", h.getRun)
	rg.GET("/latest", h.latest)
}

type refreshRequest struct {
	Providers []string `json:"providers"`
	Regions   []string `json:"regions"`
	MaxPages  int      `json:"max_pages"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
			return
		}
	}

	run, err := h.mgr.StartRun(c.Request.Context(), snapshots.RunOptions{
		Providers: req.Providers,
		Regions:   req.Regions,
		MaxPages:  req.MaxPages,
	})
	if err != nil {
		if errors.Is(err, snapshots.ErrNoProviders) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "providers must include 'aws' or 'azure'"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to start snapshot run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":    run.ID,
		"status":    run.Status,
		"providers": run.Providers,
	})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.mgr.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, snapshots.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Snapshot run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load snapshot run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) latest(c *gin.Context) {
	provider := c.DefaultQuery("provider", "aws")
	region := c.Query("region")

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	switch provider {
	case snapshots.ProviderAWS:
		rows, err := h.store.LatestAWS(c.Request.Context(), region, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load snapshots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": provider, "count": len(rows), "items": rows})
	case snapshots.ProviderAzure:
		rows, err := h.store.LatestAzure(c.Request.Context(), region, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load snapshots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": provider, "count": len(rows), "items": rows})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "provider must be 'aws' or 'azure'"})
	}
}
