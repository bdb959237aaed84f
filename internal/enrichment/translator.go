// Package enrichment translates crawled items into Korean and refines their
// category through an injected LLM Completer.
package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vnknews/vnknews/internal/models"
	"github.com/vnknews/vnknews/internal/retry"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 1 * time.Second
	DefaultBatchSize = 10
)

// DefaultKoreanSources publish in Korean already and are never sent to the LLM.
var DefaultKoreanSources = []string{"yonhap", "insidevina"}

// Mode names used in logs and metrics.
const (
	ModeTitle = "title"
	ModeFull  = "full"
)

// Enricher is what the pipeline and service depend on.
type Enricher interface {
	TranslateTitle(ctx context.Context, item models.NewsItem) TitleResult
	TranslateFull(ctx context.Context, item models.NewsItem) FullResult
}

// CallRecorder observes every LLM attempt.
type CallRecorder interface {
	ObserveLLMCall(mode string, attempt int, duration time.Duration, err error)
}

// TitleResult is the outcome of title mode. A degraded result has a nil
// TranslatedTitle and a non-nil Err; it is still a normal return value.
type TitleResult struct {
	TranslatedTitle *string
	Category        models.Category
	Attempts        int
	Skipped         bool
	Err             error
}

// FullResult is the outcome of full-article mode.
type FullResult struct {
	TranslatedTitle   *string
	TranslatedSummary *string
	TranslatedContent *string
	Attempts          int
	Skipped           bool
	Err               error
}

// Options tune a Translator. Zero values take the defaults.
type Options struct {
	Attempts      int
	BaseDelay     time.Duration
	KoreanSources []string
	Recorder      CallRecorder
}

// Translator implements Enricher with bounded linear retry.
type Translator struct {
	completer Completer
	policy    retry.Policy
	korean    map[string]bool
	recorder  CallRecorder
	logger    *slog.Logger
}

// NewTranslator wraps completer.
func NewTranslator(completer Completer, opts Options, logger *slog.Logger) *Translator {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.KoreanSources == nil {
		opts.KoreanSources = DefaultKoreanSources
	}
	if logger == nil {
		logger = slog.Default()
	}

	korean := make(map[string]bool, len(opts.KoreanSources))
	for _, id := range opts.KoreanSources {
		korean[id] = true
	}

	return &Translator{
		completer: completer,
		policy:    retry.LinearPolicy(opts.Attempts, opts.BaseDelay),
		korean:    korean,
		recorder:  opts.Recorder,
		logger:    logger.With("component", "enrichment"),
	}
}

// IsKoreanSource reports whether items from source skip translation.
func (t *Translator) IsKoreanSource(source string) bool {
	return t.korean[source]
}

// TranslateTitle translates the headline and picks a category.
func (t *Translator) TranslateTitle(ctx context.Context, item models.NewsItem) TitleResult {
	if t.IsKoreanSource(item.Source) {
		title := item.Title
		return TitleResult{TranslatedTitle: &title, Category: item.Category, Skipped: true}
	}

	system, user := titleSystemPrompt(), BuildTitlePrompt(item)
	var translated, category string

	attempts, err := retry.Do(ctx, t.policy, func(attempt int) error {
		start := time.Now()
		raw, err := t.call(ctx, ModeTitle, attempt, system, user)
		if err != nil {
			return err
		}
		translated, category, err = ParseTitleResponse(raw)
		t.record(ModeTitle, attempt, time.Since(start), err)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		return nil
	})
	if err != nil {
		err = unwrapRetry(err)
		t.logger.Warn("title translation degraded",
			"url", item.OriginalURL,
			"source", item.Source,
			"attempts", attempts,
			"error", err)
		return TitleResult{Category: item.Category, Attempts: attempts, Err: err}
	}

	result := TitleResult{TranslatedTitle: &translated, Category: item.Category, Attempts: attempts}
	if c, ok := models.ParseCategory(category); ok {
		result.Category = c
	}
	return result
}

// TranslateFull translates title, summary and body together.
func (t *Translator) TranslateFull(ctx context.Context, item models.NewsItem) FullResult {
	if t.IsKoreanSource(item.Source) {
		title, summary := item.Title, item.Summary
		return FullResult{
			TranslatedTitle:   &title,
			TranslatedSummary: &summary,
			TranslatedContent: item.Content,
			Skipped:           true,
		}
	}

	system, user := fullSystemPrompt(), BuildFullPrompt(item)
	var title, summary, content string

	attempts, err := retry.Do(ctx, t.policy, func(attempt int) error {
		start := time.Now()
		raw, err := t.call(ctx, ModeFull, attempt, system, user)
		if err != nil {
			return err
		}
		title, summary, content, err = ParseFullResponse(raw)
		t.record(ModeFull, attempt, time.Since(start), err)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		return nil
	})
	if err != nil {
		err = unwrapRetry(err)
		t.logger.Warn("full translation degraded",
			"url", item.OriginalURL,
			"source", item.Source,
			"attempts", attempts,
			"error", err)
		return FullResult{Attempts: attempts, Err: err}
	}

	return FullResult{
		TranslatedTitle:   &title,
		TranslatedSummary: &summary,
		TranslatedContent: &content,
		Attempts:          attempts,
	}
}

// call performs one completion and records it when it fails. Transport
// failures are retryable unless the caller's context is done.
func (t *Translator) call(ctx context.Context, mode string, attempt int, system, user string) (string, error) {
	start := time.Now()
	raw, err := t.completer.Complete(ctx, system, user)
	if err != nil {
		t.record(mode, attempt, time.Since(start), err)
		t.logger.Debug("llm call failed", "mode", mode, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", retry.NewRetryableError(err)
	}
	return raw, nil
}

func (t *Translator) record(mode string, attempt int, d time.Duration, err error) {
	if t.recorder != nil {
		t.recorder.ObserveLLMCall(mode, attempt, d, err)
	}
}

// unwrapRetry strips the retry bookkeeping so results carry the cause.
func unwrapRetry(err error) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		err = exhausted.Err
	}
	var retryable *retry.RetryableError
	if errors.As(err, &retryable) {
		return retryable.Err
	}
	return err
}
