package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	infragin "github.com/sivakumaru2002/devops-ease-access/infrastructure/gin"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	inframetrics "github.com/sivakumaru2002/devops-ease-access/infrastructure/metrics"
	infraredis "github.com/sivakumaru2002/devops-ease-access/infrastructure/redis"
	"github.com/sivakumaru2002/devops-ease-access/internal/api"
	"github.com/sivakumaru2002/devops-ease-access/internal/config"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
)

// Error-intelligence fans out to many timeline calls, each bounded by the
// provider timeout.
const reportWriteTimeout = 2 * time.Minute

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	services *Services,
	stores *Stores,
	metrics *telemetry.Provider,
	log infralogger.Logger,
) *infragin.Server {
	handler := api.NewHandler(
		services.Sessions,
		services.Catalog,
		services.Analytics,
		services.Failures,
		metrics,
		log,
	)

	httpMetrics := inframetrics.NewHTTPMetrics(metrics.Registry())

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.CORS.AllowedOrigins).
		WithTimeouts(0, reportWriteTimeout, 0).
		WithRoutes(func(router *gin.Engine) {
			router.Use(httpMetrics.Middleware())
			api.SetupRoutes(router, handler, metrics.Handler(), cfg.Auth.JWTSecret)
		})

	if stores.Redis != nil {
		client := stores.Redis
		builder = builder.WithRedisHealthCheck(func() error {
			return infraredis.Ping(context.Background(), client)
		})
	}

	return builder.Build()
}
