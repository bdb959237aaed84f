package sources

import (
	"regexp"
	"testing"
	"time"
)

func TestNewDefaultRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(testFetcher(), Defaults{MaxItems: 6, DetailDelay: 900 * time.Millisecond}, testLogger())
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	expected := []string{"vnexpress", "tuoitre", "thanhnien", "vietnamnet", "sggp", "vietnamplus", "vietnamnews", "yonhap", "insidevina"}
	ids := reg.IDs()
	if len(ids) != len(expected) {
		t.Fatalf("expected %d sources, got %d: %v", len(expected), len(ids), ids)
	}
	for i, id := range expected {
		if ids[i] != id {
			t.Errorf("source %d: expected %s, got %s", i, id, ids[i])
		}
	}

	a, ok := reg.Get("vnexpress")
	if !ok {
		t.Fatal("vnexpress not registered")
	}
	cfg := a.(*SiteAdapter).Config()
	if cfg.MaxItems != 6 || cfg.DetailDelay != 900*time.Millisecond {
		t.Errorf("expected defaults applied, got max=%d delay=%v", cfg.MaxItems, cfg.DetailDelay)
	}
}

func TestCatalog_SiteConfigsAreUsable(t *testing.T) {
	insecure := 0
	for _, cfg := range Catalog() {
		t.Run(cfg.ID, func(t *testing.T) {
			if cfg.Name == "" || cfg.Language == "" {
				t.Error("name and language are required")
			}
			if len(cfg.ListingURLs) == 0 {
				t.Error("no listing urls")
			}
			if len(cfg.Listing.Item) == 0 || len(cfg.Listing.Title) == 0 || len(cfg.Detail.Body) == 0 {
				t.Error("item, title and body selectors are required")
			}
			if cfg.ArticlePattern != "" {
				if _, err := regexp.Compile(cfg.ArticlePattern); err != nil {
					t.Errorf("bad article pattern: %v", err)
				}
			}
			if !cfg.DefaultCategory.IsValid() {
				t.Errorf("invalid default category %q", cfg.DefaultCategory)
			}
			for _, rule := range cfg.CategoryRules {
				if !rule.Category.IsValid() {
					t.Errorf("rule %q has invalid category %q", rule.Match, rule.Category)
				}
			}
		})
		if cfg.InsecureTLS {
			insecure++
		}
	}

	// Relaxed TLS stays an explicit per-site exception.
	if insecure != 1 {
		t.Errorf("expected exactly one site with relaxed TLS, got %d", insecure)
	}
}

func TestRegistry_DescribeAndDuplicates(t *testing.T) {
	reg, _ := newOverrideRegistry(t)

	adapter, _ := reg.Get("testsite")
	if err := reg.Register(adapter); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	infos := reg.Describe()
	if len(infos) != 1 || infos[0].ID != "testsite" || len(infos[0].ListingURLs) != 1 {
		t.Errorf("unexpected describe output: %+v", infos)
	}
}
