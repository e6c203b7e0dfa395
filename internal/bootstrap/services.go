package bootstrap

import (
	infrahttp "github.com/sivakumaru2002/devops-ease-access/infrastructure/http"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/azdo"
	"github.com/sivakumaru2002/devops-ease-access/internal/config"
	"github.com/sivakumaru2002/devops-ease-access/internal/service"
	"github.com/sivakumaru2002/devops-ease-access/internal/session"
	"github.com/sivakumaru2002/devops-ease-access/internal/summarizer"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
	"golang.org/x/time/rate"
)

// Services bundles the request-serving services.
type Services struct {
	Sessions       *service.SessionService
	Catalog        *service.CatalogService
	Analytics      *service.AnalyticsService
	Failures       *service.FailureService
	SummarizerName string
}

// SetupServices wires the provider client factory, summarizer and services.
func SetupServices(
	cfg *config.Config,
	registry *session.Registry,
	stores *Stores,
	metrics *telemetry.Provider,
	log infralogger.Logger,
) *Services {
	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Provider.Timeout})

	var limiter *rate.Limiter
	if cfg.Provider.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Provider.RequestsPerSecond), cfg.Provider.Burst)
		log.Info("Provider calls rate limited",
			infralogger.Float64("requests_per_second", cfg.Provider.RequestsPerSecond),
			infralogger.Int("burst", cfg.Provider.Burst),
		)
	}

	factory := func(organization, pat string) service.Source {
		return azdo.NewClient(azdo.Config{
			BaseURL:      cfg.Provider.BaseURL,
			Organization: organization,
			PAT:          pat,
			Timeout:      cfg.Provider.Timeout,
			RunsTop:      cfg.Provider.RunsTop,
			BuildsTop:    cfg.Provider.BuildsTop,
			Observer:     metrics.ObserveUpstream,
			Limiter:      limiter,
		}, httpClient)
	}

	sum := summarizer.New(summarizer.Config{
		Provider:    cfg.Summarizer.Provider,
		Endpoint:    cfg.Summarizer.Endpoint,
		APIKey:      cfg.Summarizer.APIKey,
		Deployment:  cfg.Summarizer.Deployment,
		APIVersion:  cfg.Summarizer.APIVersion,
		Model:       cfg.Summarizer.Model,
		Timeout:     cfg.Summarizer.Timeout,
		Temperature: cfg.Summarizer.Temperature,
		MaxTokens:   cfg.Summarizer.MaxTokens,
		OnResult: func(provider string, r summarizer.Result) {
			outcome := "available"
			if !r.Available {
				outcome = r.Reason
			}
			metrics.RecordSummarizer(provider, outcome)
		},
	}, log)

	return &Services{
		Sessions:  service.NewSessionService(registry, factory, log),
		Catalog:   service.NewCatalogService(),
		Analytics: service.NewAnalyticsService(stores.Analytics, metrics),
		Failures: service.NewFailureService(service.FailureConfig{
			MaxFailedRuns:       cfg.Insights.MaxFailedRuns,
			LogSummaryLength:    cfg.Insights.LogSummaryLength,
			TimelineConcurrency: cfg.Insights.TimelineConcurrency,
		}, sum, metrics, log),
		SummarizerName: sum.Name(),
	}
}
