// Package api exposes the crawl service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vnknews/vnknews/internal/ingestion"
	"github.com/vnknews/vnknews/internal/models"
	"github.com/vnknews/vnknews/internal/sources"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// CrawlService is the subset of ingestion.Service the handlers call.
type CrawlService interface {
	RunFullCrawl(ctx context.Context) (*ingestion.RunReport, error)
	RunSingleSourceCrawl(ctx context.Context, source string) (int, error)
	ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error)
	BatchEnrichTitles(ctx context.Context, ids []string) (*ingestion.EnrichReport, error)
	BatchEnrichFull(ctx context.Context, ids []string) (*ingestion.EnrichReport, error)
	State() (ingestion.RunState, *ingestion.RunReport)
	SourceStatuses() []ingestion.SourceStatus
}

// SourceCatalog lists the registered sources.
type SourceCatalog interface {
	Describe() []sources.Info
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	service   CrawlService
	catalog   SourceCatalog
	health    HealthCheck
	logger    *slog.Logger
	startTime time.Time
}

func NewHandler(service CrawlService, catalog SourceCatalog, health HealthCheck, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		catalog:   catalog,
		health:    health,
		logger:    logger,
		startTime: time.Now(),
	}
}

// CrawlResponse is returned by the crawl endpoints.
type CrawlResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Count   int                  `json:"count"`
	Report  *ingestion.RunReport `json:"report,omitempty"`
	Warning string               `json:"warning,omitempty"`
}

// TranslateRequest is the body of the translate endpoints.
type TranslateRequest struct {
	IDs []string `json:"ids"`
}

// RunFullCrawl handles POST /api/crawl. PARTIAL and FAILED runs still answer
// 200 with the report. The run is detached from the request so a client
// disconnect cannot cut it short.
func (h *Handler) RunFullCrawl(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunFullCrawl(context.WithoutCancel(r.Context()))
	if errors.Is(err, ingestion.ErrRunInProgress) {
		writeError(w, http.StatusConflict, "A crawl is already running")
		return
	}
	if err != nil && report == nil {
		h.logger.Error("full crawl failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Crawl failed")
		return
	}

	resp := CrawlResponse{
		Success: report.Status != models.RunStatusFailed,
		Message: report.Message,
		Count:   report.NewItems,
		Report:  report,
	}
	if err != nil {
		h.logger.Error("full crawl finished with errors", "error", err)
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// RunSourceCrawl handles POST /api/crawl/{source}.
func (h *Handler) RunSourceCrawl(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	if err := ValidateSourceID(source); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.service.RunSingleSourceCrawl(r.Context(), source)
	switch {
	case errors.Is(err, ingestion.ErrUnknownSource):
		writeError(w, http.StatusNotFound, "Unknown source: "+source)
		return
	case err != nil:
		h.logger.Error("source crawl failed", "source", source, "error", err)
		writeJSON(w, http.StatusBadGateway, CrawlResponse{
			Success: false,
			Message: err.Error(),
		}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, CrawlResponse{
		Success: true,
		Message: "Crawled " + strconv.Itoa(count) + " items from " + source,
		Count:   count,
	}, h.logger)
}

// CrawlStatus handles GET /api/crawl/status.
func (h *Handler) CrawlStatus(w http.ResponseWriter, r *http.Request) {
	state, last := h.service.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":      state,
		"lastReport": last,
		"sources":    h.service.SourceStatuses(),
	}, h.logger)
}

// ListRunLogs handles GET /api/crawl-logs?limit=N. Invalid limits fall back
// to the default.
func (h *Handler) ListRunLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	logs, err := h.service.ListRunLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list run logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve crawl logs")
		return
	}
	if logs == nil {
		logs = []models.RunLog{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	}, h.logger)
}

// TranslateTitles handles POST /api/news/translate-titles.
func (h *Handler) TranslateTitles(w http.ResponseWriter, r *http.Request) {
	h.translate(w, r, "titles", h.service.BatchEnrichTitles)
}

// TranslateFull handles POST /api/news/translate-full.
func (h *Handler) TranslateFull(w http.ResponseWriter, r *http.Request) {
	h.translate(w, r, "full", h.service.BatchEnrichFull)
}

func (h *Handler) translate(
	w http.ResponseWriter,
	r *http.Request,
	mode string,
	run func(context.Context, []string) (*ingestion.EnrichReport, error),
) {
	var req TranslateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := ValidateTranslateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := run(r.Context(), req.IDs)
	if err != nil {
		h.logger.Error("translation failed", "mode", mode, "error", err)
		writeError(w, http.StatusInternalServerError, "Translation failed")
		return
	}
	writeJSON(w, http.StatusOK, report, h.logger)
}

// ListSources handles GET /api/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	infos := h.catalog.Describe()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": infos,
		"count":   len(infos),
	}, h.logger)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body["error"] = err.Error()
		}
	}
	writeJSON(w, status, body, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message}, nil)
}
