package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vnknews/vnknews/internal/enrichment"
	"github.com/vnknews/vnknews/internal/models"
	"github.com/vnknews/vnknews/internal/sources"
)

// RunState is the orchestrator's lifecycle state.
type RunState string

const (
	StateIdle      RunState = "IDLE"
	StateRunning   RunState = "RUNNING"
	StateSucceeded RunState = "SUCCEEDED"
	StatePartial   RunState = "PARTIAL"
	StateFailed    RunState = "FAILED"
)

// AdapterSource supplies the adapters to crawl. *sources.Registry implements it.
type AdapterSource interface {
	All() []sources.Adapter
	Get(id string) (sources.Adapter, bool)
}

// Recorder observes runs and per-source outcomes.
type Recorder interface {
	ObserveRun(kind string, status models.RunStatus, duration time.Duration, newItems int)
	ObserveSource(source string, discovered, persisted int, err error)
}

// Run kinds passed to Recorder.ObserveRun.
const (
	RunKindFull   = "full"
	RunKindSource = "source"
)

// PipelineConfig holds configuration for the crawl pipeline.
type PipelineConfig struct {
	BatchSize int // Enrichment batch size
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize: enrichment.DefaultBatchSize,
	}
}

// SourceReport is the outcome of one adapter within a run.
type SourceReport struct {
	Source   string `json:"source"`
	Found    int    `json:"found"`
	NewItems int    `json:"newItems"`
	Error    string `json:"error,omitempty"`
}

// RunReport summarizes one full crawl.
type RunReport struct {
	Status          models.RunStatus `json:"status"`
	Total           int              `json:"total"`
	NewItems        int              `json:"newItems"`
	Duplicates      int              `json:"duplicates"`      // InRunDuplicates + AlreadyStored
	InRunDuplicates int              `json:"inRunDuplicates"` // Same URL from more than one listing or source
	AlreadyStored   int              `json:"alreadyStored"`
	Translated      int              `json:"translated"`
	EnrichFailed    int              `json:"enrichFailed"`
	PersistErrors   int              `json:"persistErrors"`
	Sources         []SourceReport   `json:"sources"`
	FailedSources   []string         `json:"failedSources,omitempty"`
	Message         string           `json:"message"`
	StartedAt       time.Time        `json:"startedAt"`
	Duration        time.Duration    `json:"duration"`
}

// Pipeline orchestrates crawl runs across all adapters.
type Pipeline struct {
	sources  AdapterSource
	store    Store
	enricher enrichment.Enricher
	recorder Recorder
	logger   *slog.Logger
	config   PipelineConfig
	status   *StatusTracker
	now      func() time.Time

	mu         sync.RWMutex
	state      RunState
	lastReport *RunReport
}

// NewPipeline creates a new crawl pipeline.
func NewPipeline(
	adapters AdapterSource,
	store Store,
	enricher enrichment.Enricher,
	recorder Recorder,
	logger *slog.Logger,
	config PipelineConfig,
) *Pipeline {
	if config.BatchSize <= 0 {
		config.BatchSize = enrichment.DefaultBatchSize
	}
	if enricher == nil {
		enricher = enrichment.NoopTranslator{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		sources:  adapters,
		store:    store,
		enricher: enricher,
		recorder: recorder,
		logger:   logger.With("component", "pipeline"),
		config:   config,
		status:   NewStatusTracker(),
		now:      time.Now,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() RunState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SourceStatuses returns the crawl health of every source crawled so far.
func (p *Pipeline) SourceStatuses() []SourceStatus {
	return p.status.Snapshot()
}

// LastReport returns the report of the most recent full crawl, or nil.
func (p *Pipeline) LastReport() *RunReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastReport
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		return ErrRunInProgress
	}
	p.state = StateRunning
	return nil
}

// abort releases the RUNNING state when a run unwinds without finishing.
func (p *Pipeline) abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		p.state = StateFailed
	}
}

func (p *Pipeline) finish(report *RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastReport = report
	switch report.Status {
	case models.RunStatusSuccess:
		p.state = StateSucceeded
	case models.RunStatusPartial:
		p.state = StatePartial
	default:
		p.state = StateFailed
	}
}

// crawlOutcome is what one adapter goroutine produces.
type crawlOutcome struct {
	source string
	items  []models.NewsItem
	err    *AdapterError
}

// RunFull crawls every adapter concurrently, waits for all of them, then
// enriches and persists new items and writes one run log. Adapter failures
// produce a PARTIAL or FAILED report, not an error. The returned error is
// ErrRunInProgress or a run log write failure; the report is valid with the
// latter. Once crawling ends, persistence and the run log are written even if
// ctx has been cancelled.
func (p *Pipeline) RunFull(ctx context.Context) (*RunReport, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	finished := false
	defer func() {
		if !finished {
			p.abort()
		}
	}()

	start := p.now()
	adapters := p.sources.All()

	p.logger.Info("starting full crawl", "sources", len(adapters))

	outcomes := make([]crawlOutcome, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, a sources.Adapter) {
			defer wg.Done()
			outcomes[i] = p.crawl(ctx, a)
		}(i, adapter)
	}
	wg.Wait()

	report := &RunReport{StartedAt: start}
	newPerSource := make(map[string]int)
	errorDetails := make(map[string]models.SourceError)
	var found []models.NewsItem

	for _, o := range outcomes {
		if o.err != nil {
			report.FailedSources = append(report.FailedSources, o.source)
			errorDetails[o.source] = o.err.SourceError()
			continue
		}
		report.Total += len(o.items)
		found = append(found, o.items...)
	}

	// Found items are only useful once stored; do not let a cancelled caller
	// drop them or the run log.
	storeCtx := context.WithoutCancel(ctx)

	filter := NewDeduplicationFilter(NewMemoryDeduplicator())
	unique := filter.Filter(found)
	fresh := p.dropKnown(storeCtx, unique)
	report.InRunDuplicates = filter.GetStats().Duplicates
	report.AlreadyStored = len(unique) - len(fresh)
	report.Duplicates = report.InRunDuplicates + report.AlreadyStored

	if len(fresh) > 0 {
		results := enrichment.BatchTranslateTitles(ctx, p.enricher, fresh, p.config.BatchSize, func(pr enrichment.Progress) {
			p.logger.Info("title enrichment progress",
				"completed", pr.Completed,
				"total", pr.Total,
				"success", pr.Success,
				"failed", pr.Failed)
		})
		for i := range fresh {
			if applyTitleResult(&fresh[i], results[i]) {
				report.Translated++
			} else if results[i].Err != nil {
				report.EnrichFailed++
			}
		}
	}

	persister := NewPersister(p.store, PolicySkipExisting, p.logger)
	for _, result := range persister.PersistAll(storeCtx, fresh) {
		switch {
		case result.Err != nil:
			report.PersistErrors++
		case result.Created:
			report.NewItems++
			newPerSource[result.Item.Source]++
		}
	}

	for _, o := range outcomes {
		sr := SourceReport{Source: o.source, Found: len(o.items), NewItems: newPerSource[o.source]}
		if o.err != nil {
			sr.Error = o.err.Err.Error()
		}
		report.Sources = append(report.Sources, sr)
		if p.recorder != nil {
			var err error
			if o.err != nil {
				err = o.err
			}
			p.recorder.ObserveSource(o.source, sr.Found, sr.NewItems, err)
		}
	}

	report.Status = models.DeriveRunStatus(len(adapters)-len(report.FailedSources), len(report.FailedSources))
	report.Message = runMessage(report, len(adapters))
	report.Duration = p.now().Sub(start)

	runLog := models.RunLog{
		Status:     report.Status,
		ItemsFound: report.NewItems,
		Message:    report.Message,
		RunAt:      start.UTC(),
	}
	if len(errorDetails) > 0 {
		runLog.ErrorDetails = errorDetails
	}

	p.logger.Info("full crawl finished",
		"status", report.Status,
		"total", report.Total,
		"new_items", report.NewItems,
		"in_run_duplicates", report.InRunDuplicates,
		"already_stored", report.AlreadyStored,
		"failed_sources", len(report.FailedSources),
		"duration_ms", report.Duration.Milliseconds())

	if p.recorder != nil {
		p.recorder.ObserveRun(RunKindFull, report.Status, report.Duration, report.NewItems)
	}
	p.finish(report)
	finished = true

	if err := p.store.CreateRunLog(storeCtx, runLog); err != nil {
		p.logger.Error("failed to write run log", "error", err)
		return report, fmt.Errorf("write run log: %w", err)
	}
	return report, nil
}

// RunSource crawls one adapter and persists its items one by one: stored
// URLs are refreshed, new ones are title-enriched and inserted. It returns
// how many items were created or refreshed. No run log is written.
func (p *Pipeline) RunSource(ctx context.Context, id string) (int, error) {
	adapter, ok := p.sources.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}

	start := p.now()
	logger := p.logger.With("source", id)
	logger.Info("starting single-source crawl")

	outcome := p.crawl(ctx, adapter)
	if outcome.err != nil {
		if p.recorder != nil {
			p.recorder.ObserveSource(id, 0, 0, outcome.err)
			p.recorder.ObserveRun(RunKindSource, models.RunStatusFailed, p.now().Sub(start), 0)
		}
		return 0, outcome.err
	}

	items := NewDeduplicationFilter(NewMemoryDeduplicator()).Filter(outcome.items)
	persister := NewPersister(p.store, PolicyRefreshExisting, p.logger)
	storeCtx := context.WithoutCancel(ctx)

	var created, refreshed, failed int
	for _, item := range items {
		existing, err := p.store.FindByURL(storeCtx, item.OriginalURL)
		if err != nil {
			logger.Warn("lookup failed, inserting", "url", item.OriginalURL, "error", err)
		}
		if existing == nil {
			applyTitleResult(&item, p.enricher.TranslateTitle(ctx, item))
		}

		result := persister.Persist(storeCtx, item)
		switch {
		case result.Err != nil:
			failed++
		case result.Created:
			created++
		case result.Refreshed:
			refreshed++
		}
	}

	duration := p.now().Sub(start)
	logger.Info("single-source crawl finished",
		"found", len(outcome.items),
		"created", created,
		"refreshed", refreshed,
		"failed", failed,
		"duration_ms", duration.Milliseconds())

	if p.recorder != nil {
		p.recorder.ObserveSource(id, len(outcome.items), created, nil)
		p.recorder.ObserveRun(RunKindSource, models.RunStatusSuccess, duration, created)
	}
	return created + refreshed, nil
}

// crawl runs one adapter, converting errors and panics into an AdapterError.
func (p *Pipeline) crawl(ctx context.Context, a sources.Adapter) (outcome crawlOutcome) {
	outcome.source = a.ID()
	logger := p.logger.With("source", a.ID())

	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("adapter panicked", "panic", r)
			outcome.items = nil
			outcome.err = newPanicError(a.ID(), r, debug.Stack(), p.now())
		}
		var err error
		if outcome.err != nil {
			err = outcome.err
		}
		p.status.Update(outcome.source, start, len(outcome.items), p.now().Sub(start), err)
	}()

	items, err := a.Crawl(ctx)
	if err != nil {
		logger.Error("adapter failed", "error", err, "duration_ms", p.now().Sub(start).Milliseconds())
		outcome.err = newAdapterError(a.ID(), err, p.now())
		return outcome
	}

	logger.Info("adapter finished", "items", len(items), "duration_ms", p.now().Sub(start).Milliseconds())
	outcome.items = items
	return outcome
}

// dropKnown removes items whose URL is already stored. Lookup errors keep the
// item; InsertIfAbsent still guards against duplicates.
func (p *Pipeline) dropKnown(ctx context.Context, items []models.NewsItem) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		existing, err := p.store.FindByURL(ctx, item.OriginalURL)
		if err != nil {
			p.logger.Warn("lookup failed", "url", item.OriginalURL, "error", err)
		}
		if existing == nil {
			out = append(out, item)
		}
	}
	return out
}

// applyTitleResult copies enrichment output onto item. It reports whether a
// translation was produced by the model.
func applyTitleResult(item *models.NewsItem, result enrichment.TitleResult) bool {
	if result.TranslatedTitle == nil {
		return false
	}
	title := *result.TranslatedTitle
	item.TranslatedTitle = &title
	if result.Category.IsValid() {
		item.Category = result.Category
	}
	return !result.Skipped
}

func runMessage(r *RunReport, sourceCount int) string {
	msg := fmt.Sprintf("Crawled %d items from %d sources, %d new", r.Total, sourceCount, r.NewItems)
	if len(r.FailedSources) == 0 {
		return msg
	}
	failed := append([]string(nil), r.FailedSources...)
	sort.Strings(failed)
	return fmt.Sprintf("%s; %d sources failed: %s", msg, len(failed), strings.Join(failed, ", "))
}
