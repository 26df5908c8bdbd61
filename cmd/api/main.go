package main

import (
	"context"
	"log"
	"time"

	"github.com/cloud-analytics/cloud-analytics-backend/config"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/auth"
	authhttp "github.com/cloud-analytics/cloud-analytics-backend/internal/auth/http"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing"
	awshttp "github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing/http"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
	azurehttp "github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing/http"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/bootstrap"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/cache"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/compare"
	comparehttp "github.com/cloud-analytics/cloud-analytics-backend/internal/compare/http"
	cronjob "github.com/cloud-analytics/cloud-analytics-backend/internal/cron"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots"
	snapshothttp "github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots/http"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/storage/postgres"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/users"
)

const serviceName = "cloud-analytics-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	// The comparison and price proxy routes work without Postgres; auth and
	// snapshots are only mounted when the pool is up.
	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Printf("db unavailable, auth and snapshot routes disabled: %v", err)
		pool = nil
	} else {
		defer pool.Close()
	}

	awsClient, err := awspricing.NewClientFromEnv(ctx, cfg.AWS.PricingRegion)
	if err != nil {
		log.Fatalf("aws pricing client: %v", err)
	}
	azureClient := azurepricing.NewClient(cfg.Azure.RetailPricesURL)

	var priceCache compare.PriceCache
	deps := bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		DB:          pool,
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()

		deps.Redis = redisClient
		priceCache = cache.NewPriceCache(redisClient, cfg.Compare.CacheTTL)
	} else {
		log.Println("REDIS_ADDR not set, price caching disabled")
	}

	authSvc := auth.NewService(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpireMinutes)*time.Minute)
	compareSvc := compare.NewService(awsClient, azureClient, priceCache)

	deps.AWS = awshttp.NewHandler(awsClient)
	deps.Azure = azurehttp.NewHandler(azureClient)
	deps.Compare = comparehttp.NewHandler(compareSvc)
	deps.RequireAuth = auth.RequireAuth(authSvc)

	if pool != nil {
		runDB, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			log.Fatalf("run log db: %v", err)
		}
		defer runDB.Close()

		store := postgres.NewPriceStore(pool)
		mgr := snapshots.NewManager(
			snapshots.NewAWSFetcher(awsClient, store, snapshots.DefaultFetchConfig()),
			snapshots.NewAzureFetcher(azureClient, store),
			snapshots.NewRunLog(runDB),
		)

		if cfg.Cron.Enabled {
			sched := cronjob.NewScheduler(mgr, cfg.Cron.Spec)
			sched.Start()
			defer sched.Stop()
		}

		deps.Auth = authhttp.NewHandler(authSvc, users.NewRepo(pool))
		deps.Snapshots = snapshothttp.NewHandler(mgr, store)
	}

	r := bootstrap.BuildRouter(deps)

	log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
