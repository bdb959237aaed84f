package ingestion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vnknews/vnknews/internal/models"
)

// MaxStackBytes bounds the stack stored per failed source in a run log.
const MaxStackBytes = 2000

var (
	// ErrRunInProgress is returned when a full crawl is already running.
	ErrRunInProgress = errors.New("crawl run already in progress")

	// ErrUnknownSource is returned for a source id with no registered adapter.
	ErrUnknownSource = errors.New("unknown source")
)

// AdapterError records one adapter's failure during a run.
type AdapterError struct {
	Source string
	Err    error
	Stack  string
	Time   time.Time
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// SourceError converts the failure into its run-log form.
func (e *AdapterError) SourceError() models.SourceError {
	return models.SourceError{
		Message: e.Err.Error(),
		Stack:   truncateStack(e.Stack, MaxStackBytes),
		Time:    e.Time.UTC(),
	}
}

// newAdapterError captures err with a stack built from its wrap chain.
func newAdapterError(source string, err error, at time.Time) *AdapterError {
	return &AdapterError{
		Source: source,
		Err:    err,
		Stack:  errorChain(err),
		Time:   at,
	}
}

// newPanicError captures a recovered panic together with the goroutine stack.
func newPanicError(source string, recovered any, stack []byte, at time.Time) *AdapterError {
	return &AdapterError{
		Source: source,
		Err:    fmt.Errorf("panic: %v", recovered),
		Stack:  string(stack),
		Time:   at,
	}
}

// errorChain renders every layer of a wrapped error, outermost first.
func errorChain(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %v", e, e))
	}
	return strings.Join(lines, "\n")
}

// truncateStack cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncateStack(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
