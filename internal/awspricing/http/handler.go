package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
)

// Handler serves the AWS pricing proxy endpoints.
type Handler struct {
	client *awspricing.Client
}

func NewHandler(client *awspricing.Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices", h.GetPrices)
}

// GetPrices handles GET /aws/prices.
func (h *Handler) GetPrices(c *gin.Context) {
	maxPages, err := parseMaxPages(c.DefaultQuery("max_pages", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q := awspricing.Query{
		ServiceCode:      c.DefaultQuery("service_code", "AmazonEC2"),
		Region:           c.Query("region"),
		InstanceType:     c.Query("instance_type"),
		OperatingSystem:  c.Query("operating_system"),
		Tenancy:          c.Query("tenancy"),
		PreInstalledSw:   c.Query("pre_installed_sw"),
		CapacityStatus:   c.Query("capacity_status"),
		DatabaseEngine:   c.Query("database_engine"),
		DeploymentOption: c.Query("deployment_option"),
		LicenseModel:     c.Query("license_model"),
		VolumeType:       c.Query("volume_type"),
		MaxPages:         maxPages,
	}

	raw, err := strconv.ParseBool(c.DefaultQuery("raw", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "raw must be a boolean"})
		return
	}

	items, err := h.client.GetProducts(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "aws pricing lookup failed: " + err.Error()})
		return
	}

	if raw {
		decoded := awspricing.DecodeRaw(items)
		c.JSON(http.StatusOK, gin.H{"count": len(decoded), "items": decoded})
		return
	}

	parsed := awspricing.ParseOnDemand(items)
	c.JSON(http.StatusOK, gin.H{"count": len(parsed), "items": parsed})
}

func parseMaxPages(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errInvalidMaxPages
	}
	if n < awspricing.MinPages || n > awspricing.MaxPages {
		return 0, errInvalidMaxPages
	}
	return n, nil
}

var errInvalidMaxPages = errors.New("max_pages must be an integer between 1 and 10")
