package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/cloud-analytics/cloud-analytics-backend/internal/api/http"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/api/http/middleware"
	authhttp "github.com/cloud-analytics/cloud-analytics-backend/internal/auth/http"
	awshttp "github.com/cloud-analytics/cloud-analytics-backend/internal/awspricing/http"
	azurehttp "github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing/http"
	comparehttp "github.com/cloud-analytics/cloud-analytics-backend/internal/compare/http"
	snapshothttp "github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots/http"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	AllowOrigins []string
	DB           *pgxpool.Pool
	Redis        *redis.Client

	AWS       *awshttp.Handler
	Azure     *azurehttp.Handler
	Compare   *comparehttp.Handler
	Auth      *authhttp.Handler
	Snapshots *snapshothttp.Handler

	RequireAuth gin.HandlerFunc
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = dep.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Cloud Analytics API"})
	})

	api := r.Group("/api/v1")

	if dep.Auth != nil {
		dep.Auth.RegisterRoutes(api.Group("/auth"))
	}
	if dep.AWS != nil {
		dep.AWS.RegisterRoutes(api.Group("/aws"))
	}
	if dep.Azure != nil {
		dep.Azure.RegisterRoutes(api.Group("/azure"))
	}

	if dep.Compare != nil {
		cmp := api.Group("/compare")
		if dep.RequireAuth != nil {
			cmp.Use(dep.RequireAuth)
		}
		dep.Compare.RegisterRoutes(cmp)
	}

	if dep.Snapshots != nil {
		snaps := api.Group("/snapshots")
		if dep.RequireAuth != nil {
			snaps.Use(dep.RequireAuth)
		}
		dep.Snapshots.RegisterRoutes(snaps)
	}

	return r
}
