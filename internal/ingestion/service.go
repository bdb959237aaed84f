package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vnknews/vnknews/internal/enrichment"
	"github.com/vnknews/vnknews/internal/models"
)

const (
	DefaultRunLogLimit = 20
	MaxRunLogLimit     = 100
)

// EnrichReport summarizes a manual enrichment request.
type EnrichReport struct {
	Requested int      `json:"requested"`
	Found     int      `json:"found"`
	Success   int      `json:"success"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Missing   []string `json:"missing,omitempty"`
}

// Service is the in-process entry point wrapped by the HTTP API, the CLI and
// the scheduler.
type Service struct {
	pipeline  *Pipeline
	store     Store
	enricher  enrichment.Enricher
	batchSize int
	logger    *slog.Logger
}

// NewService creates a service around pipeline.
func NewService(pipeline *Pipeline, store Store, enricher enrichment.Enricher, batchSize int, logger *slog.Logger) *Service {
	if enricher == nil {
		enricher = enrichment.NoopTranslator{}
	}
	if batchSize <= 0 {
		batchSize = enrichment.DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline:  pipeline,
		store:     store,
		enricher:  enricher,
		batchSize: batchSize,
		logger:    logger.With("component", "service"),
	}
}

// RunFullCrawl crawls every source. See Pipeline.RunFull.
func (s *Service) RunFullCrawl(ctx context.Context) (*RunReport, error) {
	return s.pipeline.RunFull(ctx)
}

// RunSingleSourceCrawl crawls one source and refreshes stored items.
func (s *Service) RunSingleSourceCrawl(ctx context.Context, source string) (int, error) {
	return s.pipeline.RunSource(ctx, source)
}

// ListRunLogs returns the most recent run logs. limit is clamped to
// [1, MaxRunLogLimit]; zero or negative selects DefaultRunLogLimit.
func (s *Service) ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	if limit <= 0 {
		limit = DefaultRunLogLimit
	}
	if limit > MaxRunLogLimit {
		limit = MaxRunLogLimit
	}
	logs, err := s.store.ListRunLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	return logs, nil
}

// State reports the orchestrator state and the last full-crawl report.
func (s *Service) State() (RunState, *RunReport) {
	return s.pipeline.State(), s.pipeline.LastReport()
}

// SourceStatuses reports per-source crawl health.
func (s *Service) SourceStatuses() []SourceStatus {
	return s.pipeline.SourceStatuses()
}

// BatchEnrichTitles translates the titles of stored items and saves the
// results. Degraded items are counted as failed and left untouched. Items from
// Korean-language sources keep their title verbatim and count as skipped.
func (s *Service) BatchEnrichTitles(ctx context.Context, ids []string) (*EnrichReport, error) {
	items, report, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := enrichment.BatchTranslateTitles(ctx, s.enricher, items, s.batchSize, s.progress("titles"))
	for i, result := range results {
		if result.TranslatedTitle == nil {
			report.tally(result.Skipped, !result.Skipped)
			continue
		}
		update := models.TranslationUpdate{TranslatedTitle: result.TranslatedTitle}
		if result.Category.IsValid() {
			category := result.Category
			update.Category = &category
		}
		saved := s.save(ctx, items[i].ID, update)
		report.tally(result.Skipped, !saved)
	}
	return report, nil
}

// BatchEnrichFull translates title, summary and body of stored items.
func (s *Service) BatchEnrichFull(ctx context.Context, ids []string) (*EnrichReport, error) {
	items, report, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := enrichment.BatchTranslateFull(ctx, s.enricher, items, s.batchSize, s.progress("full"))
	for i, result := range results {
		if result.TranslatedTitle == nil {
			report.tally(result.Skipped, !result.Skipped)
			continue
		}
		saved := s.save(ctx, items[i].ID, models.TranslationUpdate{
			TranslatedTitle:   result.TranslatedTitle,
			TranslatedSummary: result.TranslatedSummary,
			TranslatedContent: result.TranslatedContent,
		})
		report.tally(result.Skipped, !saved)
	}
	return report, nil
}

func (s *Service) load(ctx context.Context, ids []string) ([]models.NewsItem, *EnrichReport, error) {
	report := &EnrichReport{Requested: len(ids)}
	if len(ids) == 0 {
		return nil, report, nil
	}

	items, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load items: %w", err)
	}
	report.Found = len(items)

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		seen[item.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			report.Missing = append(report.Missing, id)
		}
	}
	return items, report, nil
}

func (s *Service) save(ctx context.Context, id string, update models.TranslationUpdate) bool {
	if err := s.store.UpdateTranslation(ctx, id, update); err != nil {
		s.logger.Error("failed to save translation", "id", id, "error", err)
		return false
	}
	return true
}

// tally counts one item outcome. Failure wins over skipping.
func (r *EnrichReport) tally(skipped, failed bool) {
	switch {
	case failed:
		r.Failed++
	case skipped:
		r.Skipped++
	default:
		r.Success++
	}
}
