package telemetry

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/icebreak/config"
)

// Telemetry tracks pipeline outcomes, both as in-memory aggregates for the
// stats endpoint and as Prometheus collectors for scraping.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu      sync.RWMutex
	metrics Metrics

	registry       *prometheus.Registry
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	genAttempts    prometheus.Histogram
	scrapeOutcomes *prometheus.CounterVec
}

// Metrics holds aggregate pipeline counters.
type Metrics struct {
	TotalRuns        int64
	SuccessfulRuns   int64
	FailedRuns       int64
	AverageRunTime   time.Duration
	GenerationCalls  int64
	ProfilesFound    int64
	ScrapesSucceeded int64
	ScrapesFailed    int64
}

// RunEvent describes one completed pipeline run, successful or not.
type RunEvent struct {
	Name             string
	Backend          string
	StartTime        time.Time
	Duration         time.Duration
	Success          bool
	Error            string
	Attempts         int
	ProfilesFound    int
	ScrapesSucceeded int
	ScrapesFailed    int
}

// New creates a telemetry instance with its own Prometheus registry.
func New(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config:   cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icebreak",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icebreak",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		genAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icebreak",
			Name:      "generation_attempts",
			Help:      "Model calls needed before output parsed.",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		}),
		scrapeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icebreak",
			Name:      "scrapes_total",
			Help:      "Profile scrapes by outcome.",
		}, []string{"outcome"}),
	}
	t.registry.MustRegister(t.runsTotal, t.runDuration, t.genAttempts, t.scrapeOutcomes)
	return t
}

// RecordRun records a completed run. Safe on a nil receiver so the
// orchestrator can run without telemetry wired.
func (t *Telemetry) RecordRun(event RunEvent) {
	if t == nil || !t.config.Enabled {
		return
	}

	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	t.runsTotal.WithLabelValues(outcome).Inc()
	t.runDuration.Observe(event.Duration.Seconds())
	if event.Attempts > 0 {
		t.genAttempts.Observe(float64(event.Attempts))
	}
	t.scrapeOutcomes.WithLabelValues("success").Add(float64(event.ScrapesSucceeded))
	t.scrapeOutcomes.WithLabelValues("failure").Add(float64(event.ScrapesFailed))

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRuns++
	if event.Success {
		t.metrics.SuccessfulRuns++
	} else {
		t.metrics.FailedRuns++
		t.logger.Printf("run for %q failed after %v: %s", event.Name, event.Duration, event.Error)
	}
	t.metrics.GenerationCalls += int64(event.Attempts)
	t.metrics.ProfilesFound += int64(event.ProfilesFound)
	t.metrics.ScrapesSucceeded += int64(event.ScrapesSucceeded)
	t.metrics.ScrapesFailed += int64(event.ScrapesFailed)

	// Update average run time
	if t.metrics.TotalRuns == 1 {
		t.metrics.AverageRunTime = event.Duration
	} else {
		total := t.metrics.AverageRunTime*time.Duration(t.metrics.TotalRuns-1) + event.Duration
		t.metrics.AverageRunTime = total / time.Duration(t.metrics.TotalRuns)
	}
}

// GetMetrics returns a copy of the aggregate counters.
func (t *Telemetry) GetMetrics() Metrics {
	if t == nil {
		return Metrics{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Handler exposes the collectors in Prometheus text format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
