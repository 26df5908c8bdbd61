package compare

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
)

type stubAWS struct {
	mu      sync.Mutex
	queries []awspricing.Query
	price   *float64
	err     error
}

func (s *stubAWS) MinOnDemandUSD(_ context.Context, q awspricing.Query) (*float64, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.price, s.err
}

type stubAzure struct {
	mu      sync.Mutex
	filters []azurepricing.Filter
	// prices is consumed per call so tests can model the sku-then-region
	// fallback retry.
	prices []*float64
	err    error
}

func (s *stubAzure) MinRetailPrice(_ context.Context, f azurepricing.Filter, _ int) (*float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.prices) == 0 {
		return nil, nil
	}
	p := s.prices[0]
	s.prices = s.prices[1:]
	return p, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]float64
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string]float64)} }

func (c *memCache) GetPrice(_ context.Context, key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) SetPrice(_ context.Context, key string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = price
}

func f(v float64) *float64 { return &v }

func TestCheapest(t *testing.T) {
	cases := []struct {
		name string
		aws  *float64
		az   *float64
		want string
	}{
		{"aws wins", f(1), f(2), ProviderAWS},
		{"azure wins", f(3), f(2), ProviderAzure},
		{"tie", f(2), f(2), ProviderSame},
		{"both missing", nil, nil, ProviderSame},
		{"aws missing", nil, f(2), ProviderAzure},
		{"azure missing", f(1), nil, ProviderAWS},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Cheapest(tc.aws, tc.az))
		})
	}
}

func TestFallbackZero(t *testing.T) {
	assert.Equal(t, 0.0, FallbackZero(nil))
	assert.Equal(t, 1.5, FallbackZero(f(1.5)))
}

func TestCompareServiceVM(t *testing.T) {
	aws := &stubAWS{price: f(0.0104)}
	azure := &stubAzure{prices: []*float64{f(0.0125)}}
	svc := NewService(aws, azure, nil)

	res := svc.CompareService(context.Background(), ServiceInput{
		ServiceType:  ServiceTypeVM,
		Region:       "us-west-2",
		InstanceType: "t3.micro",
		AzureSKU:     "B1s",
		MaxPages:     1,
	})

	require.NotNil(t, res.AWSPriceUSD)
	require.NotNil(t, res.AzurePriceUSD)
	assert.Equal(t, ProviderAWS, res.CheapestProvider)

	require.Len(t, aws.queries, 1)
	assert.Equal(t, "AmazonEC2", aws.queries[0].ServiceCode)
	assert.Equal(t, "Linux", aws.queries[0].OperatingSystem)

	require.Len(t, azure.filters, 1)
	assert.Equal(t, "Virtual Machines", azure.filters[0].ServiceName)
	assert.Equal(t, "westus2", azure.filters[0].ArmRegionName)
	assert.Equal(t, "B1s", azure.filters[0].SkuName)
}

func TestCompareServiceVMSkuFallback(t *testing.T) {
	aws := &stubAWS{price: f(0.0104)}
	// First (sku-scoped) lookup comes up empty, region-wide retry hits.
	azure := &stubAzure{prices: []*float64{nil, f(0.02)}}
	svc := NewService(aws, azure, nil)

	res := svc.CompareService(context.Background(), ServiceInput{
		ServiceType: ServiceTypeVM,
		Region:      "us-west-2",
		AzureSKU:    "NoSuchSKU",
		MaxPages:    1,
	})

	require.NotNil(t, res.AzurePriceUSD)
	assert.Equal(t, 0.02, *res.AzurePriceUSD)

	require.Len(t, azure.filters, 2)
	assert.Equal(t, "NoSuchSKU", azure.filters[0].SkuName)
	assert.Equal(t, "", azure.filters[1].SkuName)
}

func TestCompareServiceStorage(t *testing.T) {
	aws := &stubAWS{price: f(0.023)}
	azure := &stubAzure{prices: []*float64{f(0.018)}}
	svc := NewService(aws, azure, nil)

	res := svc.CompareService(context.Background(), ServiceInput{
		ServiceType: ServiceTypeStorage,
		Region:      "us-east-1",
	})

	assert.Equal(t, ProviderAzure, res.CheapestProvider)
	require.Len(t, aws.queries, 1)
	assert.Equal(t, "AmazonS3", aws.queries[0].ServiceCode)
	require.Len(t, azure.filters, 1)
	assert.Equal(t, "Storage", azure.filters[0].ServiceName)
}

func TestCompareLookupErrorCollapsesToNil(t *testing.T) {
	aws := &stubAWS{err: errors.New("throttled")}
	azure := &stubAzure{prices: []*float64{f(0.0125)}}
	svc := NewService(aws, azure, nil)

	res := svc.CompareService(context.Background(), ServiceInput{
		ServiceType: ServiceTypeVM,
		Region:      "us-west-2",
	})

	assert.Nil(t, res.AWSPriceUSD)
	require.NotNil(t, res.AzurePriceUSD)
	assert.Equal(t, ProviderAzure, res.CheapestProvider)
}

func TestCompareSQLQueryShape(t *testing.T) {
	aws := &stubAWS{price: f(0.1)}
	azure := &stubAzure{prices: []*float64{f(0.2)}}
	svc := NewService(aws, azure, nil)

	svc.CompareSQL(context.Background(), SQLInput{
		Region:           "eu-west-1",
		DatabaseEngine:   "PostgreSQL",
		DeploymentOption: "Multi-AZ",
		LicenseModel:     "License included",
		SkuName:          "GP_Gen5_2",
	})

	require.Len(t, aws.queries, 1)
	q := aws.queries[0]
	assert.Equal(t, "AmazonRDS", q.ServiceCode)
	assert.Equal(t, "PostgreSQL", q.DatabaseEngine)
	assert.Equal(t, "Multi-AZ", q.DeploymentOption)
	assert.Equal(t, "License included", q.LicenseModel)

	require.Len(t, azure.filters, 1)
	assert.Equal(t, "SQL Database", azure.filters[0].ServiceName)
	assert.Equal(t, "westeurope", azure.filters[0].ArmRegionName)
}

func TestCompareBlockStorage(t *testing.T) {
	aws := &stubAWS{price: f(0.08)}
	azure := &stubAzure{prices: []*float64{f(0.06)}}
	svc := NewService(aws, azure, nil)

	res := svc.CompareBlockStorage(context.Background(), BlockStorageInput{
		Region:     "us-west-2",
		VolumeType: "gp3",
	})

	assert.Equal(t, ProviderAzure, res.CheapestProvider)
	require.Len(t, aws.queries, 1)
	assert.Equal(t, "gp3", aws.queries[0].VolumeType)
}

func TestAZCoverage(t *testing.T) {
	aws := &stubAWS{price: f(0.01)}
	azure := &stubAzure{prices: []*float64{f(0.01), f(0.01)}}
	svc := NewService(aws, azure, nil)

	cov := svc.AZCoverage(context.Background(), RegionInput{Region: "us-west-2"})

	assert.True(t, cov.AWSVM)
	assert.True(t, cov.AWSStorage)
	assert.True(t, cov.AzureVM)
	assert.True(t, cov.AzureStorage)
}

func TestCacheHitSkipsLookup(t *testing.T) {
	aws := &stubAWS{price: f(0.5)}
	azure := &stubAzure{prices: []*float64{f(0.7), f(0.7)}}
	cache := newMemCache()
	svc := NewService(aws, azure, cache)

	in := RegionInput{Region: "us-west-2", MaxPages: 1}
	svc.CompareDNS(context.Background(), in)
	require.Len(t, aws.queries, 1)

	// Second run is served from the cache.
	svc.CompareDNS(context.Background(), in)
	assert.Len(t, aws.queries, 1)
	assert.GreaterOrEqual(t, cache.sets, 2)
}

func TestMapAzureRegion(t *testing.T) {
	assert.Equal(t, "westus2", MapAzureRegion("us-west-2", ""))
	assert.Equal(t, "brazilsouth", MapAzureRegion("sa-east-1", ""))
	assert.Equal(t, "custom", MapAzureRegion("us-west-2", "custom"))
	assert.Equal(t, "unknown-region", MapAzureRegion("unknown-region", ""))
}

func TestClampPages(t *testing.T) {
	assert.Equal(t, MinPages, clampPages(0))
	assert.Equal(t, 3, clampPages(3))
	assert.Equal(t, MaxPages, clampPages(99))
}
