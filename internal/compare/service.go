package compare

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
)

const (
	MinPages = 1
	MaxPages = 5

	ProviderAWS   = "AWS"
	ProviderAzure = "Azure"
	ProviderSame  = "Same"
)

// AWSSource resolves a minimum OnDemand USD price from the AWS Pricing API.
type AWSSource interface {
	MinOnDemandUSD(ctx context.Context, q awspricing.Query) (*float64, error)
}

// AzureSource resolves a minimum retail price from the Azure retail API.
type AzureSource interface {
	MinRetailPrice(ctx context.Context, f azurepricing.Filter, maxPages int) (*float64, error)
}

// PriceCache memoizes resolved min prices. A nil cache disables caching.
type PriceCache interface {
	GetPrice(ctx context.Context, key string) (float64, bool)
	SetPrice(ctx context.Context, key string, price float64)
}

// Service runs cross-provider price comparisons against in-process sources.
type Service struct {
	aws   AWSSource
	azure AzureSource
	cache PriceCache
}

func NewService(aws AWSSource, azure AzureSource, cache PriceCache) *Service {
	return &Service{aws: aws, azure: azure, cache: cache}
}

// Result is the common shape of a comparison: per-provider min price plus the
// winner. Prices are nil when a side had no usable data.
type Result struct {
	AWSPriceUSD      *float64
	AzurePriceUSD    *float64
	CheapestProvider string
}

// Cheapest names the cheaper provider. Both missing is a tie; a single
// missing side loses to the one that has data.
func Cheapest(aws, azure *float64) string {
	switch {
	case aws == nil && azure == nil:
		return ProviderSame
	case aws == nil:
		return ProviderAzure
	case azure == nil:
		return ProviderAWS
	case *aws < *azure:
		return ProviderAWS
	case *azure < *aws:
		return ProviderAzure
	default:
		return ProviderSame
	}
}

// FallbackZero maps a missing or NaN price to 0.0 for endpoints that promise
// a numeric output.
func FallbackZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0.0
	}
	return *v
}

func clampPages(n int) int {
	if n < MinPages {
		return MinPages
	}
	if n > MaxPages {
		return MaxPages
	}
	return n
}

// awsMin resolves the AWS side, consulting the cache first. Lookup failures
// are logged and collapse to nil so single-sided comparisons still work.
func (s *Service) awsMin(ctx context.Context, q awspricing.Query) *float64 {
	key := fmt.Sprintf("cmp:aws:%s:%s:%s:%s:%s:%s:%s:%s:%d",
		q.ServiceCode, q.Region, q.InstanceType, q.OperatingSystem,
		q.DatabaseEngine, q.DeploymentOption, q.LicenseModel, q.VolumeType, q.MaxPages)
	if s.cache != nil {
		if v, ok := s.cache.GetPrice(ctx, key); ok {
			return &v
		}
	}

	price, err := s.aws.MinOnDemandUSD(ctx, q)
	if err != nil {
		log.Printf("compare: aws lookup failed (service=%s region=%s): %v", q.ServiceCode, q.Region, err)
		return nil
	}
	if price != nil && s.cache != nil {
		s.cache.SetPrice(ctx, key, *price)
	}
	return price
}

func (s *Service) azureMin(ctx context.Context, f azurepricing.Filter, maxPages int) *float64 {
	key := fmt.Sprintf("cmp:azure:%s:%s:%s:%s:%d",
		f.ServiceName, f.ArmRegionName, f.SkuName, f.MeterName, maxPages)
	if s.cache != nil {
		if v, ok := s.cache.GetPrice(ctx, key); ok {
			return &v
		}
	}

	price, err := s.azure.MinRetailPrice(ctx, f, maxPages)
	if err != nil {
		log.Printf("compare: azure lookup failed (service=%s region=%s): %v", f.ServiceName, f.ArmRegionName, err)
		return nil
	}
	if price != nil && s.cache != nil {
		s.cache.SetPrice(ctx, key, *price)
	}
	return price
}

// bothSides runs the two provider lookups concurrently.
func (s *Service) bothSides(ctx context.Context, awsFn func(context.Context) *float64, azureFn func(context.Context) *float64) (awsPrice, azurePrice *float64) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		awsPrice = awsFn(ctx)
	}()
	go func() {
		defer wg.Done()
		azurePrice = azureFn(ctx)
	}()
	wg.Wait()
	return awsPrice, azurePrice
}

// ServiceType selects what CompareService prices.
type ServiceType string

const (
	ServiceTypeVM      ServiceType = "vm"
	ServiceTypeStorage ServiceType = "storage"
)

func ParseServiceType(s string) (ServiceType, error) {
	switch ServiceType(strings.ToLower(strings.TrimSpace(s))) {
	case ServiceTypeVM, "":
		return ServiceTypeVM, nil
	case ServiceTypeStorage:
		return ServiceTypeStorage, nil
	default:
		return "", fmt.Errorf("service_type must be %q or %q", ServiceTypeVM, ServiceTypeStorage)
	}
}

// ServiceInput parameterizes the unified VM/storage comparison.
type ServiceInput struct {
	ServiceType  ServiceType
	Region       string // AWS region code
	AzureRegion  string // optional override
	InstanceType string // VM only
	AzureSKU     string // VM only
	MaxPages     int
}

// CompareService compares VM (EC2 vs Virtual Machines) or storage
// (S3 vs Storage) pricing in one region.
func (s *Service) CompareService(ctx context.Context, in ServiceInput) Result {
	azRegion := MapAzureRegion(in.Region, in.AzureRegion)
	pages := clampPages(in.MaxPages)

	var awsPrice, azurePrice *float64
	if in.ServiceType == ServiceTypeVM {
		awsPrice, azurePrice = s.bothSides(ctx,
			func(ctx context.Context) *float64 {
				return s.awsMin(ctx, awspricing.Query{
					ServiceCode:     "AmazonEC2",
					Region:          in.Region,
					InstanceType:    in.InstanceType,
					OperatingSystem: "Linux",
					MaxPages:        pages,
				})
			},
			func(ctx context.Context) *float64 {
				// Prefer a sku match; the sku catalog is sparse, so fall
				// back to a region-wide query when it comes up empty.
				p := s.azureMin(ctx, azurepricing.Filter{
					ServiceName:   "Virtual Machines",
					ArmRegionName: azRegion,
					SkuName:       in.AzureSKU,
				}, pages)
				if p == nil {
					p = s.azureMin(ctx, azurepricing.Filter{
						ServiceName:   "Virtual Machines",
						ArmRegionName: azRegion,
					}, pages)
				}
				return p
			},
		)
	} else {
		awsPrice, azurePrice = s.bothSides(ctx,
			func(ctx context.Context) *float64 {
				return s.awsMin(ctx, awspricing.Query{
					ServiceCode: "AmazonS3",
					Region:      in.Region,
					MaxPages:    pages,
				})
			},
			func(ctx context.Context) *float64 {
				return s.azureMin(ctx, azurepricing.Filter{
					ServiceName:   "Storage",
					ArmRegionName: azRegion,
				}, pages)
			},
		)
	}

	return Result{
		AWSPriceUSD:      awsPrice,
		AzurePriceUSD:    azurePrice,
		CheapestProvider: Cheapest(awsPrice, azurePrice),
	}
}

// SQLInput parameterizes the relational database comparison.
type SQLInput struct {
	Region           string
	AzureRegion      string
	DatabaseEngine   string
	DeploymentOption string
	LicenseModel     string
	SkuName          string
	MaxPages         int
}

// CompareSQL compares RDS against Azure SQL Database.
func (s *Service) CompareSQL(ctx context.Context, in SQLInput) Result {
	azRegion := MapAzureRegion(in.Region, in.AzureRegion)
	pages := clampPages(in.MaxPages)

	awsPrice, azurePrice := s.bothSides(ctx,
		func(ctx context.Context) *float64 {
			return s.awsMin(ctx, awspricing.Query{
				ServiceCode:      "AmazonRDS",
				Region:           in.Region,
				DatabaseEngine:   in.DatabaseEngine,
				DeploymentOption: in.DeploymentOption,
				LicenseModel:     in.LicenseModel,
				MaxPages:         pages,
			})
		},
		func(ctx context.Context) *float64 {
			p := s.azureMin(ctx, azurepricing.Filter{
				ServiceName:   "SQL Database",
				ArmRegionName: azRegion,
				SkuName:       in.SkuName,
			}, pages)
			if p == nil {
				p = s.azureMin(ctx, azurepricing.Filter{
					ServiceName:   "SQL Database",
					ArmRegionName: azRegion,
				}, pages)
			}
			return p
		},
	)

	return Result{
		AWSPriceUSD:      awsPrice,
		AzurePriceUSD:    azurePrice,
		CheapestProvider: Cheapest(awsPrice, azurePrice),
	}
}

// RegionInput is shared by the single-knob comparisons.
type RegionInput struct {
	Region      string
	AzureRegion string
	MaxPages    int
}

// CompareEgress compares internet data transfer out pricing.
func (s *Service) CompareEgress(ctx context.Context, in RegionInput) Result {
	return s.simpleCompare(ctx, in, "AmazonEC2", "Bandwidth")
}

// CompareLoadBalancer compares ELB against Azure Load Balancer.
func (s *Service) CompareLoadBalancer(ctx context.Context, in RegionInput) Result {
	return s.simpleCompare(ctx, in, "AWSELB", "Load Balancer")
}

// CompareDNS compares Route 53 against Azure DNS.
func (s *Service) CompareDNS(ctx context.Context, in RegionInput) Result {
	return s.simpleCompare(ctx, in, "AmazonRoute53", "DNS")
}

func (s *Service) simpleCompare(ctx context.Context, in RegionInput, awsService, azureService string) Result {
	azRegion := MapAzureRegion(in.Region, in.AzureRegion)
	pages := clampPages(in.MaxPages)

	awsPrice, azurePrice := s.bothSides(ctx,
		func(ctx context.Context) *float64 {
			return s.awsMin(ctx, awspricing.Query{
				ServiceCode: awsService,
				Region:      in.Region,
				MaxPages:    pages,
			})
		},
		func(ctx context.Context) *float64 {
			return s.azureMin(ctx, azurepricing.Filter{
				ServiceName:   azureService,
				ArmRegionName: azRegion,
			}, pages)
		},
	)

	return Result{
		AWSPriceUSD:      awsPrice,
		AzurePriceUSD:    azurePrice,
		CheapestProvider: Cheapest(awsPrice, azurePrice),
	}
}

// BlockStorageInput parameterizes the EBS vs Managed Disks comparison.
type BlockStorageInput struct {
	Region      string
	AzureRegion string
	VolumeType  string // AWS EBS volumeType hint
	SkuName     string // Azure disk SKU
	MaxPages    int
}

// CompareBlockStorage compares EBS (via EC2 pricing) against Managed Disks
// (via Storage).
func (s *Service) CompareBlockStorage(ctx context.Context, in BlockStorageInput) Result {
	azRegion := MapAzureRegion(in.Region, in.AzureRegion)
	pages := clampPages(in.MaxPages)

	awsPrice, azurePrice := s.bothSides(ctx,
		func(ctx context.Context) *float64 {
			return s.awsMin(ctx, awspricing.Query{
				ServiceCode: "AmazonEC2",
				Region:      in.Region,
				VolumeType:  in.VolumeType,
				MaxPages:    pages,
			})
		},
		func(ctx context.Context) *float64 {
			return s.azureMin(ctx, azurepricing.Filter{
				ServiceName:   "Storage",
				ArmRegionName: azRegion,
				SkuName:       in.SkuName,
			}, pages)
		},
	)

	return Result{
		AWSPriceUSD:      awsPrice,
		AzurePriceUSD:    azurePrice,
		CheapestProvider: Cheapest(awsPrice, azurePrice),
	}
}

// Coverage reports whether VM and storage pricing exists per provider in a
// region. Pricing rows existing is used as a service-availability heuristic.
type Coverage struct {
	AWSVM        bool
	AWSStorage   bool
	AzureVM      bool
	AzureStorage bool
}

// AZCoverage probes VM and storage pricing presence on both providers.
func (s *Service) AZCoverage(ctx context.Context, in RegionInput) Coverage {
	azRegion := MapAzureRegion(in.Region, in.AzureRegion)
	pages := clampPages(in.MaxPages)
	if pages > 2 {
		pages = 2
	}

	var cov Coverage
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		cov.AWSVM = s.awsMin(ctx, awspricing.Query{ServiceCode: "AmazonEC2", Region: in.Region, MaxPages: pages}) != nil
	}()
	go func() {
		defer wg.Done()
		cov.AWSStorage = s.awsMin(ctx, awspricing.Query{ServiceCode: "AmazonS3", Region: in.Region, MaxPages: pages}) != nil
	}()
	go func() {
		defer wg.Done()
		cov.AzureVM = s.azureMin(ctx, azurepricing.Filter{ServiceName: "Virtual Machines", ArmRegionName: azRegion}, pages) != nil
	}()
	go func() {
		defer wg.Done()
		cov.AzureStorage = s.azureMin(ctx, azurepricing.Filter{ServiceName: "Storage", ArmRegionName: azRegion}, pages) != nil
	}()
	wg.Wait()
	return cov
}
