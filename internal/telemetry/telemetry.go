// Package telemetry exports the service's Prometheus metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devops_ease_access"

// Metrics holds all service metrics.
type Metrics struct {
	Reports           *prometheus.CounterVec
	DegradedRuns      *prometheus.CounterVec
	SummarizerResults *prometheus.CounterVec
	CacheRequests     *prometheus.CounterVec
	UpstreamDuration  *prometheus.HistogramVec
}

// Provider owns a private registry so several providers can coexist in one
// process (tests) without duplicate registration panics.
type Provider struct {
	registry *prometheus.Registry
	Metrics  *Metrics
}

// NewProvider registers the service metrics plus Go runtime and process
// collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{
		Reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports served, by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		DegradedRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_runs_total",
			Help:      "Failed runs reported with placeholder detail, by reason",
		}, []string{"reason"}),

		SummarizerResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarizer_results_total",
			Help:      "AI summarizer attempts, by provider and outcome",
		}, []string{"provider", "outcome"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Analytics cache lookups, by result",
		}, []string{"result"}),

		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Azure DevOps API call latency, by operation and outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"op", "outcome"}),
	}

	return &Provider{registry: reg, Metrics: m}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// RegisterSessionGauge reports the live session count on each scrape.
func (p *Provider) RegisterSessionGauge(count func() int) {
	promauto.With(p.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Sessions held in memory, including expired ones not yet evicted",
	}, func() float64 { return float64(count()) })
}

// All Record methods are safe on a nil *Provider.

func (p *Provider) RecordReport(endpoint, outcome string) {
	if p == nil {
		return
	}
	p.Metrics.Reports.WithLabelValues(endpoint, outcome).Inc()
}

func (p *Provider) RecordDegradedRun(reason string) {
	if p == nil {
		return
	}
	p.Metrics.DegradedRuns.WithLabelValues(reason).Inc()
}

// RecordSummarizer counts an attempt; outcome is "available" or the
// unavailability reason.
func (p *Provider) RecordSummarizer(provider, outcome string) {
	if p == nil {
		return
	}
	p.Metrics.SummarizerResults.WithLabelValues(provider, outcome).Inc()
}

func (p *Provider) RecordCache(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.Metrics.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveUpstream matches the azdo.Observer signature.
func (p *Provider) ObserveUpstream(op string, elapsed time.Duration, err error) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.Metrics.UpstreamDuration.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}
