package api

import (
	"log/slog"
	"net/http"
)

// Instrumenter wraps handlers with request metrics.
type Instrumenter interface {
	InstrumentHandler(next http.Handler) http.Handler
	Handler() http.Handler
}

// SetupRoutes registers the crawl API on mux.
func SetupRoutes(mux *http.ServeMux, service CrawlService, catalog SourceCatalog, health HealthCheck, logger *slog.Logger) {
	handler := NewHandler(service, catalog, health, logger)

	// Crawl routes
	mux.HandleFunc("POST /api/crawl", handler.RunFullCrawl)
	mux.HandleFunc("GET /api/crawl/status", handler.CrawlStatus)
	mux.HandleFunc("POST /api/crawl/{source}", handler.RunSourceCrawl)
	mux.HandleFunc("GET /api/crawl-logs", handler.ListRunLogs)

	// Enrichment routes
	mux.HandleFunc("POST /api/news/translate-titles", handler.TranslateTitles)
	mux.HandleFunc("POST /api/news/translate-full", handler.TranslateFull)

	mux.HandleFunc("GET /api/sources", handler.ListSources)
	mux.HandleFunc("GET /healthz", handler.Health)
}

// NewRouter builds the full handler tree, with /metrics and instrumentation
// when m is non-nil.
func NewRouter(service CrawlService, catalog SourceCatalog, health HealthCheck, m Instrumenter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	SetupRoutes(mux, service, catalog, health, logger)
	if m == nil {
		return mux
	}
	mux.Handle("GET /metrics", m.Handler())
	return m.InstrumentHandler(mux)
}
