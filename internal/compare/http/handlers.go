package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/compare"
)

// Handler serves the cross-provider comparison endpoints.
type Handler struct {
	svc *compare.Service
}

func NewHandler(svc *compare.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/service", h.CompareService)
	rg.GET("/db-sql", h.CompareSQL)
	rg.GET("/egress", h.CompareEgress)
	rg.GET("/block-storage", h.CompareBlockStorage)
	rg.GET("/load-balancer", h.CompareLoadBalancer)
	rg.GET("/dns", h.CompareDNS)
	rg.GET("/az-coverage", h.AZCoverage)
}

var validDatabaseEngines = map[string]bool{
	"MySQL":      true,
	"PostgreSQL": true,
	"MariaDB":    true,
	"SQL Server": true,
	"Oracle":     true,
}

var validDeploymentOptions = map[string]bool{
	"Single-AZ": true,
	"Multi-AZ":  true,
}

var validLicenseModels = map[string]bool{
	"License included": true,
	"BYOL":             true,
}

func requireRegion(c *gin.Context) (string, bool) {
	region := c.Query("region")
	if region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "region is required (AWS region code, e.g. us-west-2)"})
		return "", false
	}
	return region, true
}

func parseMaxPages(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.DefaultQuery("max_pages", "1"))
	if err != nil || n < compare.MinPages || n > compare.MaxPages {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidMaxPages.Error()})
		return 0, false
	}
	return n, true
}

var errInvalidMaxPages = errors.New("max_pages must be an integer between 1 and 5")

type priceSide struct {
	Service  string   `json:"service,omitempty"`
	PriceUSD *float64 `json:"price_usd"`
}

type priceSideZero struct {
	Service  string  `json:"service,omitempty"`
	PriceUSD float64 `json:"price_usd"`
}

// CompareService handles POST /compare/service.
func (h *Handler) CompareService(c *gin.Context) {
	serviceType, err := compare.ParseServiceType(c.DefaultQuery("service_type", "vm"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.ServiceInput{
		ServiceType:  serviceType,
		Region:       region,
		AzureRegion:  c.Query("azure_region"),
		InstanceType: c.DefaultQuery("instance_type", "t3.micro"),
		AzureSKU:     c.DefaultQuery("azure_sku", "B1s"),
		MaxPages:     maxPages,
	}
	res := h.svc.CompareService(c.Request.Context(), in)

	inputs := gin.H{
		"service_type":   string(serviceType),
		"region_entered": region,
		"aws_region":     region,
		"azure_region":   compare.MapAzureRegion(region, in.AzureRegion),
	}
	if serviceType == compare.ServiceTypeVM {
		inputs["instance_type"] = in.InstanceType
		inputs["azure_sku"] = in.AzureSKU
	}

	c.JSON(http.StatusOK, gin.H{
		"inputs":            inputs,
		"aws":               priceSide{PriceUSD: res.AWSPriceUSD},
		"azure":             priceSide{PriceUSD: res.AzurePriceUSD},
		"cheapest_provider": res.CheapestProvider,
	})
}

// CompareSQL handles GET /compare/db-sql.
func (h *Handler) CompareSQL(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	engine := c.DefaultQuery("database_engine", "MySQL")
	if !validDatabaseEngines[engine] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "database_engine must be one of MySQL, PostgreSQL, MariaDB, SQL Server, Oracle"})
		return
	}
	deployment := c.DefaultQuery("deployment_option", "Single-AZ")
	if !validDeploymentOptions[deployment] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deployment_option must be Single-AZ or Multi-AZ"})
		return
	}
	license := c.DefaultQuery("license_model", "License included")
	if !validLicenseModels[license] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "license_model must be 'License included' or 'BYOL'"})
		return
	}

	in := compare.SQLInput{
		Region:           region,
		AzureRegion:      c.Query("azure_region"),
		DatabaseEngine:   engine,
		DeploymentOption: deployment,
		LicenseModel:     license,
		SkuName:          c.DefaultQuery("sku_name", "GP_Gen5_2"),
		MaxPages:         maxPages,
	}
	res := h.svc.CompareSQL(c.Request.Context(), in)

	// Missing sides become 0.0 in the payload; the winner is still judged
	// on the original values so the fallback doesn't bias it.
	c.JSON(http.StatusOK, gin.H{
		"inputs": gin.H{
			"region":            region,
			"azure_region":      compare.MapAzureRegion(region, in.AzureRegion),
			"database_engine":   engine,
			"deployment_option": deployment,
			"license_model":     license,
			"azure_sku":         in.SkuName,
		},
		"aws":               priceSideZero{Service: "AmazonRDS", PriceUSD: compare.FallbackZero(res.AWSPriceUSD)},
		"azure":             priceSideZero{Service: "SQL Database", PriceUSD: compare.FallbackZero(res.AzurePriceUSD)},
		"cheapest_provider": res.CheapestProvider,
	})
}

// CompareEgress handles GET /compare/egress.
func (h *Handler) CompareEgress(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.RegionInput{Region: region, AzureRegion: c.Query("azure_region"), MaxPages: maxPages}
	res := h.svc.CompareEgress(c.Request.Context(), in)

	c.JSON(http.StatusOK, gin.H{
		"inputs":            regionInputs(region, in.AzureRegion),
		"aws":               priceSide{Service: "AmazonEC2 (Data Transfer)", PriceUSD: res.AWSPriceUSD},
		"azure":             priceSide{Service: "Bandwidth", PriceUSD: res.AzurePriceUSD},
		"cheapest_provider": res.CheapestProvider,
	})
}

// CompareBlockStorage handles GET /compare/block-storage.
func (h *Handler) CompareBlockStorage(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.BlockStorageInput{
		Region:      region,
		AzureRegion: c.Query("azure_region"),
		VolumeType:  c.DefaultQuery("volume_type", "gp3"),
		SkuName:     c.Query("sku_name"),
		MaxPages:    maxPages,
	}
	res := h.svc.CompareBlockStorage(c.Request.Context(), in)

	if res.AWSPriceUSD == nil && res.AzurePriceUSD == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No block storage pricing found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inputs": gin.H{
			"aws_region":      region,
			"azure_region":    compare.MapAzureRegion(region, in.AzureRegion),
			"aws_volume_type": in.VolumeType,
			"azure_disk_sku":  in.SkuName,
		},
		"aws":               priceSide{Service: "Amazon EBS (via EC2 pricing)", PriceUSD: res.AWSPriceUSD},
		"azure":             priceSide{Service: "Managed Disks (via Storage)", PriceUSD: res.AzurePriceUSD},
		"cheapest_provider": res.CheapestProvider,
	})
}

// CompareLoadBalancer handles GET /compare/load-balancer.
func (h *Handler) CompareLoadBalancer(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.RegionInput{Region: region, AzureRegion: c.Query("azure_region"), MaxPages: maxPages}
	res := h.svc.CompareLoadBalancer(c.Request.Context(), in)

	c.JSON(http.StatusOK, gin.H{
		"inputs":            regionInputs(region, in.AzureRegion),
		"aws":               priceSideZero{Service: "Elastic Load Balancing", PriceUSD: compare.FallbackZero(res.AWSPriceUSD)},
		"azure":             priceSideZero{Service: "Load Balancer", PriceUSD: compare.FallbackZero(res.AzurePriceUSD)},
		"cheapest_provider": res.CheapestProvider,
	})
}

// CompareDNS handles GET /compare/dns.
func (h *Handler) CompareDNS(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.RegionInput{Region: region, AzureRegion: c.Query("azure_region"), MaxPages: maxPages}
	res := h.svc.CompareDNS(c.Request.Context(), in)

	c.JSON(http.StatusOK, gin.H{
		"inputs":            regionInputs(region, in.AzureRegion),
		"aws":               priceSide{Service: "Amazon Route 53", PriceUSD: res.AWSPriceUSD},
		"azure":             priceSide{Service: "Azure DNS", PriceUSD: res.AzurePriceUSD},
		"cheapest_provider": res.CheapestProvider,
	})
}

// AZCoverage handles GET /compare/az-coverage.
func (h *Handler) AZCoverage(c *gin.Context) {
	region, ok := requireRegion(c)
	if !ok {
		return
	}
	maxPages, ok := parseMaxPages(c)
	if !ok {
		return
	}

	in := compare.RegionInput{Region: region, AzureRegion: c.Query("azure_region"), MaxPages: maxPages}
	cov := h.svc.AZCoverage(c.Request.Context(), in)

	c.JSON(http.StatusOK, gin.H{
		"inputs": regionInputs(region, in.AzureRegion),
		"available": gin.H{
			"aws_vm":        cov.AWSVM,
			"aws_storage":   cov.AWSStorage,
			"azure_vm":      cov.AzureVM,
			"azure_storage": cov.AzureStorage,
		},
	})
}

func regionInputs(region, azureRegion string) gin.H {
	return gin.H{
		"aws_region":   region,
		"azure_region": compare.MapAzureRegion(region, azureRegion),
	}
}
