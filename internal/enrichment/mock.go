package enrichment

import (
	"context"
	"sync/atomic"

	"github.com/vnknews/vnknews/internal/models"
)

// NoopTranslator is wired when no LLM key is configured. Every item is
// reported as skipped with no translation, so crawling still works offline.
type NoopTranslator struct{}

func (NoopTranslator) TranslateTitle(_ context.Context, item models.NewsItem) TitleResult {
	return TitleResult{Category: item.Category, Skipped: true}
}

func (NoopTranslator) TranslateFull(context.Context, models.NewsItem) FullResult {
	return FullResult{Skipped: true}
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// ScriptedCompleter replays a fixed list of responses, repeating the last one.
// It counts calls so tests can assert on attempts.
type ScriptedCompleter struct {
	Responses []ScriptedResponse
	calls     atomic.Int32
}

// ScriptedResponse is one canned reply.
type ScriptedResponse struct {
	Text string
	Err  error
}

func (s *ScriptedCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	n := int(s.calls.Add(1)) - 1
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.Responses) == 0 {
		return "", nil
	}
	if n >= len(s.Responses) {
		n = len(s.Responses) - 1
	}
	r := s.Responses[n]
	return r.Text, r.Err
}

// Calls returns how many completions were requested.
func (s *ScriptedCompleter) Calls() int {
	return int(s.calls.Load())
}
