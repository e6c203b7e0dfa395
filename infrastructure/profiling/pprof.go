// Package profiling starts optional pprof and Pyroscope profilers. Both are
// off unless enabled through environment variables.
package profiling

import (
	"errors"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // registered on a localhost-only listener
	"os"
	"time"

	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
)

const (
	defaultPprofPort  = "6060"
	pprofReadTimeout  = 5 * time.Second
	pprofWriteTimeout = 60 * time.Second
)

// StartPprofServer serves /debug/pprof on localhost when ENABLE_PROFILING=true.
// PPROF_PORT overrides the default port 6060.
func StartPprofServer(log infralogger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = defaultPprofPort
	}
	addr := "localhost:" + port

	srv := &http.Server{
		Addr:         addr,
		Handler:      http.DefaultServeMux,
		ReadTimeout:  pprofReadTimeout,
		WriteTimeout: pprofWriteTimeout,
	}

	go func() {
		log.Info("Starting pprof server", infralogger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server stopped", infralogger.Error(err))
		}
	}()
}
