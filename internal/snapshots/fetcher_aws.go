package snapshots

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/storage/postgres"
)

const batchSize = 500

// AWSSink receives normalized AWS snapshot rows.
type AWSSink interface {
	UpsertAWSBatch(ctx context.Context, rows []postgres.AWSPriceRow) error
}

// FetchConfig tunes a snapshot fetch run.
type FetchConfig struct {
	RateLimit      rate.Limit
	BurstSize      int
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		RateLimit:      8,
		BurstSize:      16,
		MaxRetries:     3,
		BackoffInitial: 1 * time.Second,
		BackoffMax:     30 * time.Second,
	}
}

// AWSFetcher snapshots AWS Pricing API data into a sink.
type AWSFetcher struct {
	client  *awspricing.Client
	sink    AWSSink
	cfg     FetchConfig
	limiter *rate.Limiter
}

func NewAWSFetcher(client *awspricing.Client, sink AWSSink, cfg FetchConfig) *AWSFetcher {
	def := DefaultFetchConfig()
	if cfg.RateLimit == 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = def.BackoffInitial
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = def.BackoffMax
	}
	return &AWSFetcher{
		client:  client,
		sink:    sink,
		cfg:     cfg,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.BurstSize),
	}
}

// Fetch snapshots the given service in each region. Returns the number of
// rows written.
func (f *AWSFetcher) Fetch(ctx context.Context, serviceCode string, regions []string, maxPages int) (int, error) {
	if serviceCode == "" {
		serviceCode = "AmazonEC2"
	}

	total := 0
	batch := make([]postgres.AWSPriceRow, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := f.sink.UpsertAWSBatch(ctx, batch); err != nil {
			return fmt.Errorf("aws snapshot flush: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, region := range regions {
		if err := f.limiter.Wait(ctx); err != nil {
			return total, fmt.Errorf("rate limiter: %w", err)
		}

		items, err := f.getProductsWithRetry(ctx, awspricing.Query{
			ServiceCode: serviceCode,
			Region:      region,
			MaxPages:    maxPages,
		})
		if err != nil {
			return total, fmt.Errorf("fetch %s/%s: %w", serviceCode, region, err)
		}

		fetchedAt := time.Now().UTC()
		for _, item := range awspricing.ParseOnDemand(items) {
			if item.SKU == "" {
				continue
			}
			row := postgres.AWSPriceRow{
				SKUID:        item.SKU,
				Region:       region,
				ServiceCode:  serviceCode,
				InstanceType: item.Attributes.InstanceType,
				PriceUSD:     item.OnDemandPriceHourUSD,
				Currency:     "USD",
				Unit:         "Hrs",
				FetchedAt:    fetchedAt,
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
		log.Printf("aws snapshot: fetched %d products for %s in %s", len(items), serviceCode, region)
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func (f *AWSFetcher) getProductsWithRetry(ctx context.Context, q awspricing.Query) ([]string, error) {
	backoff := f.cfg.BackoffInitial
	var lastErr error

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		items, err := f.client.GetProducts(ctx, q)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if attempt == f.cfg.MaxRetries {
			break
		}
		log.Printf("aws snapshot attempt %d failed: %v. Retrying in %v...", attempt+1, err, backoff)
		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * 1.5)
			if backoff > f.cfg.BackoffMax {
				backoff = f.cfg.BackoffMax
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("get products failed after %d retries: %w", f.cfg.MaxRetries+1, lastErr)
}
