package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const overridesYAML = `
sites:
  testsite:
    max_items: 3
    detail_delay: 2s
    listing:
      title: ["h2.new-title a", "h3.title-news a"]
    detail:
      body: ["div.new-body"]
  unknown:
    max_items: 1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newOverrideRegistry(t *testing.T) (*Registry, *SiteAdapter) {
	t.Helper()
	adapter, err := NewSiteAdapter(SiteConfig{
		ID:          "testsite",
		ListingURLs: []string{"https://example.vn/list"},
		MaxItems:    8,
		Listing: ListingSelectors{
			Item:  []string{"article"},
			Title: []string{"h3.title-news a"},
		},
		Detail: DetailSelectors{Body: []string{"article.fck_detail"}},
	}, Hooks{}, testFetcher(), testLogger())
	if err != nil {
		t.Fatalf("NewSiteAdapter: %v", err)
	}
	return NewRegistry(adapter), adapter
}

func TestLoadAndApplyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, overridesYAML)

	file, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	reg, adapter := newOverrideRegistry(t)
	if err := ApplyOverrides(reg, file, testLogger()); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}

	cfg := adapter.Config()
	if cfg.MaxItems != 3 {
		t.Errorf("expected max_items override, got %d", cfg.MaxItems)
	}
	if cfg.DetailDelay != 2*time.Second {
		t.Errorf("expected detail_delay override, got %v", cfg.DetailDelay)
	}
	if len(cfg.Listing.Title) != 2 || cfg.Listing.Title[0] != "h2.new-title a" {
		t.Errorf("expected title selectors replaced, got %v", cfg.Listing.Title)
	}
	if len(cfg.Listing.Item) != 1 || cfg.Listing.Item[0] != "article" {
		t.Errorf("expected untouched item selectors, got %v", cfg.Listing.Item)
	}
	if cfg.Detail.Body[0] != "div.new-body" {
		t.Errorf("expected body selectors replaced, got %v", cfg.Detail.Body)
	}

	// Dropping the site from the file reverts to built-in selectors.
	if err := ApplyOverrides(reg, &OverrideFile{}, testLogger()); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	cfg = adapter.Config()
	if cfg.MaxItems != 8 || cfg.Listing.Title[0] != "h3.title-news a" {
		t.Errorf("expected defaults restored, got max=%d title=%v", cfg.MaxItems, cfg.Listing.Title)
	}
}

func TestApplyOverrides_RejectsBadPattern(t *testing.T) {
	reg, adapter := newOverrideRegistry(t)
	bad := "("

	err := ApplyOverrides(reg, &OverrideFile{Sites: map[string]SiteOverride{
		"testsite": {ArticlePattern: &bad, MaxItems: 2},
	}}, testLogger())
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if adapter.Config().MaxItems != 8 {
		t.Error("invalid override should leave the previous config in place")
	}
}

func TestLoadOverrides_Errors(t *testing.T) {
	if _, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "sites: [this is: not valid")
	if _, err := LoadOverrides(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestWatchOverrides_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	writeFile(t, path, "sites:\n  testsite:\n    max_items: 4\n")

	reg, adapter := newOverrideRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := WatchOverrides(ctx, path, reg, testLogger()); err != nil {
		t.Fatalf("WatchOverrides: %v", err)
	}
	if got := adapter.Config().MaxItems; got != 4 {
		t.Fatalf("expected initial load to apply max_items=4, got %d", got)
	}

	writeFile(t, path, "sites:\n  testsite:\n    max_items: 6\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if adapter.Config().MaxItems == 6 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("expected reload to apply max_items=6, got %d", adapter.Config().MaxItems)
}
