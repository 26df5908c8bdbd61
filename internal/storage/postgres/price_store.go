package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AWSPriceRow is one stored AWS price snapshot entry.
type AWSPriceRow struct {
	SKUID        string                 `json:"sku_id"`
	Region       string                 `json:"region"`
	ServiceCode  string                 `json:"service_code"`
	InstanceType string                 `json:"instance_type,omitempty"`
	PriceUSD     *float64               `json:"price_usd,omitempty"`
	Currency     string                 `json:"currency,omitempty"`
	Unit         string                 `json:"unit,omitempty"`
	FetchedAt    time.Time              `json:"fetched_at"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// AzurePriceRow is one stored Azure retail price snapshot entry.
type AzurePriceRow struct {
	SKUID       string                 `json:"sku_id"`
	Region      string                 `json:"region"`
	ServiceName string                 `json:"service_name"`
	SkuName     string                 `json:"sku_name,omitempty"`
	MeterName   string                 `json:"meter_name,omitempty"`
	RetailPrice *float64               `json:"retail_price,omitempty"`
	Currency    string                 `json:"currency,omitempty"`
	Unit        string                 `json:"unit,omitempty"`
	FetchedAt   time.Time              `json:"fetched_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PriceStore persists price snapshots in Postgres.
type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

func (s *PriceStore) UpsertAWSBatch(ctx context.Context, rows []AWSPriceRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO aws_price_snapshots
  (sku_id, provider, region, service_code, instance_type, price_usd, currency, unit, fetched_at, metadata, created_at, updated_at)
VALUES ($1, 'aws', $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (sku_id, region) DO UPDATE
  SET service_code = EXCLUDED.service_code,
      instance_type = EXCLUDED.instance_type,
      price_usd = EXCLUDED.price_usd,
      currency = EXCLUDED.currency,
      unit = EXCLUDED.unit,
      fetched_at = EXCLUDED.fetched_at,
      metadata = EXCLUDED.metadata,
      updated_at = now()
;`
	for _, r := range rows {
		metaJSON, _ := json.Marshal(r.Metadata)
		if _, err := tx.Exec(ctx, q,
			r.SKUID, r.Region, r.ServiceCode, r.InstanceType, r.PriceUSD,
			r.Currency, r.Unit, r.FetchedAt.UTC(), metaJSON,
		); err != nil {
			return fmt.Errorf("upsert aws price %s/%s: %w", r.SKUID, r.Region, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PriceStore) UpsertAzureBatch(ctx context.Context, rows []AzurePriceRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO azure_price_snapshots
  (sku_id, provider, region, service_name, sku_name, meter_name, retail_price, currency, unit, fetched_at, metadata, created_at, updated_at)
VALUES ($1, 'azure', $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
ON CONFLICT (sku_id, region) DO UPDATE
  SET service_name = EXCLUDED.service_name,
      sku_name = EXCLUDED.sku_name,
      meter_name = EXCLUDED.meter_name,
      retail_price = EXCLUDED.retail_price,
      currency = EXCLUDED.currency,
      unit = EXCLUDED.unit,
      fetched_at = EXCLUDED.fetched_at,
      metadata = EXCLUDED.metadata,
      updated_at = now()
;`
	for _, r := range rows {
		metaJSON, _ := json.Marshal(r.Metadata)
		if _, err := tx.Exec(ctx, q,
			r.SKUID, r.Region, r.ServiceName, r.SkuName, r.MeterName, r.RetailPrice,
			r.Currency, r.Unit, r.FetchedAt.UTC(), metaJSON,
		); err != nil {
			return fmt.Errorf("upsert azure price %s/%s: %w", r.SKUID, r.Region, err)
		}
	}
	return tx.Commit(ctx)
}

// LatestAWS returns the most recently fetched AWS rows, optionally filtered
// by region.
func (s *PriceStore) LatestAWS(ctx context.Context, region string, limit int) ([]AWSPriceRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const q = `
SELECT sku_id, region, service_code, coalesce(instance_type, ''), price_usd,
       coalesce(currency, ''), coalesce(unit, ''), fetched_at
FROM aws_price_snapshots
WHERE ($1 = '' OR region = $1)
ORDER BY fetched_at DESC
LIMIT $2
;`
	rows, err := s.pool.Query(ctx, q, region, limit)
	if err != nil {
		return nil, fmt.Errorf("query aws snapshots: %w", err)
	}
	defer rows.Close()

	var out []AWSPriceRow
	for rows.Next() {
		var r AWSPriceRow
		if err := rows.Scan(&r.SKUID, &r.Region, &r.ServiceCode, &r.InstanceType,
			&r.PriceUSD, &r.Currency, &r.Unit, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan aws snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestAzure returns the most recently fetched Azure rows, optionally
// filtered by region.
func (s *PriceStore) LatestAzure(ctx context.Context, region string, limit int) ([]AzurePriceRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const q = `
SELECT sku_id, region, service_name, coalesce(sku_name, ''), coalesce(meter_name, ''),
       retail_price, coalesce(currency, ''), coalesce(unit, ''), fetched_at
FROM azure_price_snapshots
WHERE ($1 = '' OR region = $1)
ORDER BY fetched_at DESC
LIMIT $2
;`
	rows, err := s.pool.Query(ctx, q, region, limit)
	if err != nil {
		return nil, fmt.Errorf("query azure snapshots: %w", err)
	}
	defer rows.Close()

	var out []AzurePriceRow
	for rows.Next() {
		var r AzurePriceRow
		if err := rows.Scan(&r.SKUID, &r.Region, &r.ServiceName, &r.SkuName, &r.MeterName,
			&r.RetailPrice, &r.Currency, &r.Unit, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan azure snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
