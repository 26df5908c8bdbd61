package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
)

// Handler serves the Azure retail prices proxy endpoints.
type Handler struct {
	client *azurepricing.Client
}

func NewHandler(client *azurepricing.Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices", h.GetPrices)
}

// GetPrices handles GET /azure/prices.
func (h *Handler) GetPrices(c *gin.Context) {
	maxPages, err := parseMaxPages(c.DefaultQuery("max_pages", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := azurepricing.Filter{
		ServiceName:   c.Query("service_name"),
		ArmRegionName: c.Query("arm_region_name"),
		SkuName:       c.Query("sku_name"),
		MeterName:     c.Query("meter_name"),
		PriceType:     c.Query("price_type"),
		CurrencyCode:  c.Query("currency_code"),
	}

	items, err := h.client.GetPrices(c.Request.Context(), f, maxPages)
	if err != nil {
		var ue *azurepricing.UpstreamError
		if errors.As(err, &ue) {
			c.JSON(ue.StatusCode, gin.H{"error": ue.Body})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "azure retail prices lookup failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

func parseMaxPages(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < azurepricing.MinPages || n > azurepricing.MaxPages {
		return 0, errors.New("max_pages must be an integer between 1 and 10")
	}
	return n, nil
}
