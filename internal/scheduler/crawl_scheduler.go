// Package scheduler triggers full crawls on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnknews/vnknews/internal/ingestion"
)

// DefaultRunTimeout bounds a single scheduled crawl.
const DefaultRunTimeout = 30 * time.Minute

// Runner starts a full crawl.
type Runner interface {
	RunFullCrawl(ctx context.Context) (*ingestion.RunReport, error)
}

// CrawlScheduler runs full crawls on a standard 5-field cron expression
// (descriptors such as "@hourly" are accepted too).
type CrawlScheduler struct {
	runner     Runner
	logger     *slog.Logger
	cron       *cron.Cron
	spec       string
	entry      cron.EntryID
	runTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ParseSchedule validates a cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := parser().Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl schedule %q: %w", spec, err)
	}
	return schedule, nil
}

func parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// NewCrawlScheduler validates spec and registers the crawl job. The job does
// not fire until Start.
func NewCrawlScheduler(runner Runner, spec string, runTimeout time.Duration, logger *slog.Logger) (*CrawlScheduler, error) {
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &CrawlScheduler{
		runner:     runner,
		logger:     logger,
		spec:       spec,
		runTimeout: runTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.cron = cron.New(
		cron.WithParser(parser()),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	entry, err := s.cron.AddFunc(spec, func() { s.runOnce(s.ctx) })
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid crawl schedule %q: %w", spec, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins firing the schedule. It returns immediately.
func (s *CrawlScheduler) Start() {
	s.cron.Start()
	s.logger.Info("crawl scheduler started", "schedule", s.spec, "next_run", s.Next())
}

// Stop cancels any running crawl and waits for it to return.
func (s *CrawlScheduler) Stop() {
	s.logger.Info("stopping crawl scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("crawl scheduler stopped")
}

// Next reports when the crawl fires next. Zero before Start.
func (s *CrawlScheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *CrawlScheduler) runOnce(parent context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	started := time.Now()
	report, err := s.runner.RunFullCrawl(ctx)
	switch {
	case errors.Is(err, ingestion.ErrRunInProgress):
		s.logger.Info("scheduled crawl skipped, a run is already in progress")
	case err != nil && report == nil:
		s.logger.Error("scheduled crawl failed", "error", err, "duration", time.Since(started))
	case err != nil:
		s.logger.Error("scheduled crawl finished with errors",
			"status", report.Status,
			"new_items", report.NewItems,
			"error", err,
		)
	default:
		s.logger.Info("scheduled crawl finished",
			"status", report.Status,
			"total", report.Total,
			"new_items", report.NewItems,
			"failed_sources", len(report.FailedSources),
			"duration", time.Since(started),
		)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
