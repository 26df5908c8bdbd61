package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/cloud-analytics/cloud-analytics-backend/config"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/bootstrap"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/storage/postgres"
)

// RunRefresh performs a one-shot snapshot refresh and exits.
func RunRefresh(args []string) {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	providers := fs.String("providers", "aws,azure", "comma-separated providers to refresh")
	regions := fs.String("regions", "", "comma-separated AWS region codes (defaults to a built-in set)")
	maxPages := fs.Int("max-pages", 3, "pages to fetch per provider call")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	runDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("run log db: %v", err)
	}
	defer runDB.Close()

	awsClient, err := awspricing.NewClientFromEnv(ctx, cfg.AWS.PricingRegion)
	if err != nil {
		log.Fatalf("aws pricing client: %v", err)
	}

	store := postgres.NewPriceStore(pool)
	mgr := snapshots.NewManager(
		snapshots.NewAWSFetcher(awsClient, store, snapshots.DefaultFetchConfig()),
		snapshots.NewAzureFetcher(azurepricing.NewClient(cfg.Azure.RetailPricesURL), store),
		snapshots.NewRunLog(runDB),
	)

	run, err := mgr.RunOnce(ctx, snapshots.RunOptions{
		Providers: splitList(*providers),
		Regions:   splitList(*regions),
		MaxPages:  *maxPages,
	})
	if err != nil {
		log.Fatalf("refresh: %v", err)
	}

	log.Printf("refresh run %s finished: status=%s aws_rows=%d azure_rows=%d",
		run.ID, run.Status, run.RowsAWS, run.RowsAzure)
	if run.Status == snapshots.StatusFailed {
		log.Fatalf("refresh failed: %s", run.Detail)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
