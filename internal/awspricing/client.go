package awspricing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

const (
	MinPages = 1
	MaxPages = 10
)

// GetProductsAPI is the slice of the Pricing client the package depends on.
type GetProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Query describes a product lookup against the Pricing API. Empty fields are
// left out of the filter set.
type Query struct {
	ServiceCode      string
	Region           string // region code or marketing name
	InstanceType     string
	OperatingSystem  string
	Tenancy          string
	PreInstalledSw   string
	CapacityStatus   string
	DatabaseEngine   string
	DeploymentOption string
	LicenseModel     string
	VolumeType       string
	MaxPages         int
}

type Client struct {
	api GetProductsAPI
}

func NewClient(api GetProductsAPI) *Client {
	return &Client{api: api}
}

// NewClientFromEnv builds a client using the default AWS credential chain.
func NewClientFromEnv(ctx context.Context, region string) (*Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config load: %w", err)
	}
	return NewClient(pricing.NewFromConfig(cfg)), nil
}

func buildFilters(q Query) []types.Filter {
	termMatch := func(field, value string) types.Filter {
		return types.Filter{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String(field),
			Value: aws.String(value),
		}
	}

	var fs []types.Filter
	if loc := ToLocation(q.Region); loc != "" {
		fs = append(fs, termMatch("location", loc))
	}
	if q.InstanceType != "" {
		fs = append(fs, termMatch("instanceType", q.InstanceType))
	}
	if q.OperatingSystem != "" {
		fs = append(fs, termMatch("operatingSystem", q.OperatingSystem))
	}
	if q.Tenancy != "" {
		fs = append(fs, termMatch("tenancy", q.Tenancy))
	}
	if q.PreInstalledSw != "" {
		fs = append(fs, termMatch("preInstalledSw", q.PreInstalledSw))
	}
	if q.CapacityStatus != "" {
		fs = append(fs, termMatch("capacitystatus", q.CapacityStatus))
	}
	if q.DatabaseEngine != "" {
		fs = append(fs, termMatch("databaseEngine", q.DatabaseEngine))
	}
	if q.DeploymentOption != "" {
		fs = append(fs, termMatch("deploymentOption", q.DeploymentOption))
	}
	if q.LicenseModel != "" {
		fs = append(fs, termMatch("licenseModel", q.LicenseModel))
	}
	if q.VolumeType != "" {
		fs = append(fs, termMatch("volumeType", q.VolumeType))
	}
	return fs
}

// GetProducts pages through the Pricing API and returns the raw PriceList
// entries (JSON strings), scanning at most q.MaxPages pages.
func (c *Client) GetProducts(ctx context.Context, q Query) ([]string, error) {
	if q.ServiceCode == "" {
		q.ServiceCode = "AmazonEC2"
	}
	maxPages := q.MaxPages
	if maxPages < MinPages {
		maxPages = MinPages
	}
	if maxPages > MaxPages {
		maxPages = MaxPages
	}

	input := &pricing.GetProductsInput{
		ServiceCode:   aws.String(q.ServiceCode),
		FormatVersion: aws.String("aws_v1"),
		Filters:       buildFilters(q),
	}

	var items []string
	var nextToken *string
	for pages := 0; pages < maxPages; pages++ {
		input.NextToken = nextToken

		resp, err := c.api.GetProducts(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("pricing get products: %w", err)
		}
		items = append(items, resp.PriceList...)

		if resp.NextToken == nil || *resp.NextToken == "" {
			break
		}
		nextToken = resp.NextToken
	}
	return items, nil
}

// MinOnDemandUSD returns the smallest OnDemand USD price found across the
// given query's results, or nil when nothing matched.
func (c *Client) MinOnDemandUSD(ctx context.Context, q Query) (*float64, error) {
	items, err := c.GetProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	return minOnDemandUSD(items), nil
}
