package snapshots

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/storage/postgres"
)

// AzureSink receives normalized Azure snapshot rows.
type AzureSink interface {
	UpsertAzureBatch(ctx context.Context, rows []postgres.AzurePriceRow) error
}

// AzureFetcher snapshots Azure retail price data into a sink.
type AzureFetcher struct {
	client  *azurepricing.Client
	sink    AzureSink
	limiter *rate.Limiter
}

func NewAzureFetcher(client *azurepricing.Client, sink AzureSink) *AzureFetcher {
	return &AzureFetcher{
		client:  client,
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Fetch snapshots the given service in each Azure region. Returns the number
// of rows written.
func (f *AzureFetcher) Fetch(ctx context.Context, serviceName string, regions []string, maxPages int) (int, error) {
	if serviceName == "" {
		serviceName = "Virtual Machines"
	}

	total := 0
	for _, region := range regions {
		if err := f.limiter.Wait(ctx); err != nil {
			return total, fmt.Errorf("rate limiter: %w", err)
		}

		items, err := f.client.GetPrices(ctx, azurepricing.Filter{
			ServiceName:   serviceName,
			ArmRegionName: region,
		}, maxPages)
		if err != nil {
			return total, fmt.Errorf("fetch %s/%s: %w", serviceName, region, err)
		}

		fetchedAt := time.Now().UTC()
		batch := make([]postgres.AzurePriceRow, 0, len(items))
		for _, item := range items {
			row := normalizeAzureItem(item, region, serviceName)
			if row.SKUID == "" || row.RetailPrice == nil {
				continue
			}
			row.FetchedAt = fetchedAt
			batch = append(batch, row)
		}

		if len(batch) > 0 {
			if err := f.sink.UpsertAzureBatch(ctx, batch); err != nil {
				return total, fmt.Errorf("azure snapshot flush: %w", err)
			}
			total += len(batch)
		}
		log.Printf("azure snapshot: fetched %d items for %s in %s", len(items), serviceName, region)
	}
	return total, nil
}

func normalizeAzureItem(item map[string]interface{}, region, serviceName string) postgres.AzurePriceRow {
	row := postgres.AzurePriceRow{
		Region:      region,
		ServiceName: serviceName,
		Metadata:    item,
	}

	if v, ok := item["skuId"].(string); ok {
		row.SKUID = v
	}
	if v, ok := item["serviceName"].(string); ok && v != "" {
		row.ServiceName = v
	}
	if v, ok := item["armRegionName"].(string); ok && v != "" {
		row.Region = v
	}
	if v, ok := item["skuName"].(string); ok {
		row.SkuName = v
	}
	if v, ok := item["meterName"].(string); ok {
		row.MeterName = v
	}
	if v, ok := item["unitOfMeasure"].(string); ok {
		row.Unit = v
	}
	if v, ok := item["currencyCode"].(string); ok {
		row.Currency = v
	}

	switch v := item["retailPrice"].(type) {
	case float64:
		price := v
		row.RetailPrice = &price
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			row.RetailPrice = &f
		}
	}

	return row
}
