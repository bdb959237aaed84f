package ingestion

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAdapterError(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := fmt.Errorf("all 2 listing pages failed: %w", root)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.FixedZone("ICT", 7*3600))

	ae := newAdapterError("sggp", wrapped, at)

	if !errors.Is(ae, root) {
		t.Error("AdapterError should unwrap to the cause")
	}
	if !strings.Contains(ae.Error(), "sggp") {
		t.Errorf("error should name the source: %s", ae.Error())
	}
	if !strings.Contains(ae.Stack, "connection refused") || strings.Count(ae.Stack, "\n") != 1 {
		t.Errorf("stack should list both layers of the chain: %q", ae.Stack)
	}

	se := ae.SourceError()
	if se.Message != wrapped.Error() {
		t.Errorf("message = %q", se.Message)
	}
	if se.Time.Location() != time.UTC {
		t.Error("time should be stored in UTC")
	}
}

func TestTruncateStack(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 4, "abcd"},
		{"rune boundary", "a한국", 3, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateStack(tt.in, tt.limit); got != tt.want {
				t.Errorf("truncateStack(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestPanicErrorStackBounded(t *testing.T) {
	stack := []byte(strings.Repeat("frame\n", 1000))
	ae := newPanicError("yonhap", "nil map", stack, time.Now())

	if !strings.Contains(ae.Err.Error(), "panic: nil map") {
		t.Errorf("unexpected error: %v", ae.Err)
	}
	if got := len(ae.SourceError().Stack); got > MaxStackBytes {
		t.Errorf("stack length %d exceeds %d", got, MaxStackBytes)
	}
}
