// Package bootstrap handles application initialization and lifecycle management
// for the devops-ease-access service.
package bootstrap

import (
	"fmt"

	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/infrastructure/profiling"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
)

const version = "dev"

// Start initializes and starts the devops-ease-access application.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Profiling (both env-gated)
	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", infralogger.Error(err))
	}
	defer func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			log.Warn("Failed to stop profiler", infralogger.Error(stopErr))
		}
	}()

	// Phase 3: Stores
	metrics := telemetry.NewProvider()

	registry, err := SetupSessions(cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("failed to set up sessions: %w", err)
	}

	stores := SetupCache(cfg, log)
	defer stores.Close(log)

	// Phase 4: Services and HTTP server
	services := SetupServices(cfg, registry, stores, metrics, log)
	server := SetupHTTPServer(cfg, services, stores, metrics, log)

	log.Info("Starting HTTP server",
		infralogger.Int("port", cfg.Service.Port),
		infralogger.String("cache_backend", stores.Backend),
		infralogger.String("summarizer", services.SummarizerName),
	)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
