package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnknews/vnknews/internal/models"
)

// CrawlCollector records crawl pipeline metrics. It implements
// fetch.Observer, enrichment.CallRecorder and ingestion.Recorder.
type CrawlCollector struct {
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	lastRunNewItems *prometheus.GaugeVec
	discovered      *prometheus.CounterVec
	persisted       *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	fetchAttempts   *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
}

// NewCrawlCollector creates the crawl metrics and registers them with reg.
func NewCrawlCollector(reg prometheus.Registerer) (*CrawlCollector, error) {
	c := &CrawlCollector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "runs_total",
			Help:      "Crawl runs by kind and final status.",
		}, []string{"kind", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "run_duration_seconds",
			Help:      "Wall time of crawl runs.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		lastRunNewItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "last_run_new_items",
			Help:      "Items persisted by the most recent run.",
		}, []string{"kind"}),
		discovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "items_discovered_total",
			Help:      "Items returned by source adapters before dedup.",
		}, []string{"source"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "items_persisted_total",
			Help:      "New items stored per source.",
		}, []string{"source"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "source_failures_total",
			Help:      "Adapter failures per source.",
		}, []string{"source"}),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "HTTP fetch attempts by host and outcome.",
		}, []string{"host", "outcome"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "LLM calls by mode and outcome.",
		}, []string{"mode", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Latency of LLM calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"mode"}),
	}

	for _, collector := range []prometheus.Collector{
		c.runs, c.runDuration, c.lastRunNewItems,
		c.discovered, c.persisted, c.sourceFailures,
		c.fetchAttempts, c.llmCalls, c.llmDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRun records a finished run.
func (c *CrawlCollector) ObserveRun(kind string, status models.RunStatus, duration time.Duration, newItems int) {
	c.runs.WithLabelValues(kind, string(status)).Inc()
	c.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
	c.lastRunNewItems.WithLabelValues(kind).Set(float64(newItems))
}

// ObserveSource records one adapter's outcome within a run.
func (c *CrawlCollector) ObserveSource(source string, discovered, persisted int, err error) {
	if err != nil {
		c.sourceFailures.WithLabelValues(source).Inc()
		return
	}
	c.discovered.WithLabelValues(source).Add(float64(discovered))
	c.persisted.WithLabelValues(source).Add(float64(persisted))
}

// ObserveFetch records one HTTP attempt.
func (c *CrawlCollector) ObserveFetch(host string, _ int, status int, err error) {
	c.fetchAttempts.WithLabelValues(host, fetchOutcome(status, err)).Inc()
}

// ObserveLLMCall records one LLM attempt.
func (c *CrawlCollector) ObserveLLMCall(mode string, _ int, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.llmCalls.WithLabelValues(mode, outcome).Inc()
	c.llmDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// fetchOutcome buckets a status into 2xx..5xx, or "error" for transport failures.
func fetchOutcome(status int, err error) string {
	if status == 0 {
		if err != nil {
			return "error"
		}
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
