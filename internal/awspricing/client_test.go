package awspricing

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePricingAPI struct {
	pages   []*pricing.GetProductsOutput
	calls   int
	inputs  []*pricing.GetProductsInput
	failErr error
}

func (f *fakePricingAPI) GetProducts(_ context.Context, params *pricing.GetProductsInput, _ ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	cp := *params
	f.inputs = append(f.inputs, &cp)
	if f.calls >= len(f.pages) {
		return &pricing.GetProductsOutput{}, nil
	}
	out := f.pages[f.calls]
	f.calls++
	return out, nil
}

func TestGetProductsPagination(t *testing.T) {
	api := &fakePricingAPI{
		pages: []*pricing.GetProductsOutput{
			{PriceList: []string{"a", "b"}, NextToken: aws.String("t1")},
			{PriceList: []string{"c"}, NextToken: aws.String("t2")},
			{PriceList: []string{"d"}},
		},
	}
	client := NewClient(api)

	items, err := client.GetProducts(context.Background(), Query{
		ServiceCode: "AmazonEC2",
		Region:      "us-west-2",
		MaxPages:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
	assert.Equal(t, 3, api.calls)
}

func TestGetProductsRespectsMaxPages(t *testing.T) {
	api := &fakePricingAPI{
		pages: []*pricing.GetProductsOutput{
			{PriceList: []string{"a"}, NextToken: aws.String("t1")},
			{PriceList: []string{"b"}, NextToken: aws.String("t2")},
			{PriceList: []string{"c"}, NextToken: aws.String("t3")},
		},
	}
	client := NewClient(api)

	items, err := client.GetProducts(context.Background(), Query{Region: "us-west-2", MaxPages: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, items)
	assert.Equal(t, 2, api.calls)
}

func TestGetProductsClampsPageBounds(t *testing.T) {
	api := &fakePricingAPI{
		pages: []*pricing.GetProductsOutput{
			{PriceList: []string{"a"}, NextToken: aws.String("t1")},
			{PriceList: []string{"b"}},
		},
	}
	client := NewClient(api)

	// Zero clamps up to 1 page.
	items, err := client.GetProducts(context.Background(), Query{Region: "us-west-2", MaxPages: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)
}

func TestGetProductsBuildsFilters(t *testing.T) {
	api := &fakePricingAPI{pages: []*pricing.GetProductsOutput{{}}}
	client := NewClient(api)

	_, err := client.GetProducts(context.Background(), Query{
		ServiceCode:     "AmazonEC2",
		Region:          "us-west-2",
		InstanceType:    "t3.micro",
		OperatingSystem: "Linux",
		MaxPages:        1,
	})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)

	in := api.inputs[0]
	assert.Equal(t, "AmazonEC2", aws.ToString(in.ServiceCode))

	got := map[string]string{}
	for _, f := range in.Filters {
		assert.Equal(t, types.FilterTypeTermMatch, f.Type)
		got[aws.ToString(f.Field)] = aws.ToString(f.Value)
	}
	assert.Equal(t, "US West (Oregon)", got["location"])
	assert.Equal(t, "t3.micro", got["instanceType"])
	assert.Equal(t, "Linux", got["operatingSystem"])
}

func TestGetProductsError(t *testing.T) {
	api := &fakePricingAPI{failErr: errors.New("throttled")}
	client := NewClient(api)

	_, err := client.GetProducts(context.Background(), Query{Region: "us-west-2"})
	assert.Error(t, err)
}

func TestMinOnDemandUSDEmpty(t *testing.T) {
	api := &fakePricingAPI{pages: []*pricing.GetProductsOutput{{}}}
	client := NewClient(api)

	price, err := client.MinOnDemandUSD(context.Background(), Query{Region: "us-west-2"})
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestToLocation(t *testing.T) {
	assert.Equal(t, "US West (Oregon)", ToLocation("us-west-2"))
	assert.Equal(t, "South America (São Paulo)", ToLocation("sa-east-1"))
	// Marketing names and unknown codes pass through.
	assert.Equal(t, "US East (N. Virginia)", ToLocation("US East (N. Virginia)"))
	assert.Equal(t, "mars-north-1", ToLocation("mars-north-1"))
}
