package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vnknews/vnknews/internal/config"
	"github.com/vnknews/vnknews/internal/enrichment"
	"github.com/vnknews/vnknews/internal/ingestion"
)

func testConfig() config.Config {
	return config.Config{
		Crawl: config.CrawlConfig{
			MaxItems:      5,
			BatchSize:     3,
			KoreanSources: []string{"yonhap"},
		},
		LLM: config.LLMConfig{Provider: enrichment.ProviderOpenAI, Model: "gpt-4o-mini"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildInMemory(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), testLogger(), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*ingestion.MemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", a.Store)
	}
	if a.DB != nil {
		t.Error("expected no database handle")
	}
	if len(a.Registry.IDs()) == 0 {
		t.Error("expected built-in sources to be registered")
	}
	if err := a.Health(context.Background()); err != nil {
		t.Errorf("Health returned error: %v", err)
	}
	if state, _ := a.Service.State(); state != ingestion.StateIdle {
		t.Errorf("state = %s, want IDLE", state)
	}
}

func TestNewEnricherSelection(t *testing.T) {
	cfg := testConfig()

	enricher, err := newEnricher(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("newEnricher returned error: %v", err)
	}
	if _, ok := enricher.(enrichment.NoopTranslator); !ok {
		t.Errorf("expected NoopTranslator without a key, got %T", enricher)
	}

	cfg.LLM.APIKey = "sk-test"
	enricher, err = newEnricher(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("newEnricher returned error: %v", err)
	}
	if _, ok := enricher.(*enrichment.Translator); !ok {
		t.Errorf("expected Translator with a key, got %T", enricher)
	}

	cfg.LLM.Provider = "gemini"
	if _, err := newEnricher(cfg, nil, testLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuildRejectsBrokenSelectorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte("sites: [unclosed"), 0o600); err != nil {
		t.Fatalf("write selectors: %v", err)
	}

	cfg := testConfig()
	cfg.Crawl.SelectorsFile = path
	if _, err := Build(context.Background(), cfg, testLogger(), Options{}); err == nil {
		t.Fatal("expected error for unparseable selectors file")
	}
}
