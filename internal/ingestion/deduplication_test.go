package ingestion

import (
	"testing"

	"github.com/vnknews/vnknews/internal/models"
)

func TestMemoryDeduplicator_IsNew(t *testing.T) {
	dedup := NewMemoryDeduplicator()

	item := models.NewsItem{OriginalURL: "https://vnexpress.net/a-1.html", Source: "vnexpress"}

	if !dedup.IsNew(item) {
		t.Error("item should be new on first check")
	}

	dedup.Mark(item)

	if dedup.IsNew(item) {
		t.Error("item should not be new after marking")
	}

	// Tracking params and fragments normalize to the same key
	variant := models.NewsItem{OriginalURL: "https://VNEXPRESS.net/a-1.html?utm_source=fb#top", Source: "tuoitre"}
	if dedup.IsNew(variant) {
		t.Error("tracking variant should be treated as a duplicate")
	}
}

func TestDeduplicationFilter(t *testing.T) {
	filter := NewDeduplicationFilter(NewMemoryDeduplicator())

	items := []models.NewsItem{
		{OriginalURL: "https://a.example/1", Source: "vnexpress"},
		{OriginalURL: "https://a.example/2", Source: "vnexpress"},
		{OriginalURL: "https://a.example/1/", Source: "tuoitre"},
	}

	unique := filter.Filter(items)

	if len(unique) != 2 {
		t.Fatalf("expected 2 unique items, got %d", len(unique))
	}
	if unique[0].Source != "vnexpress" {
		t.Errorf("first occurrence should win, got source %s", unique[0].Source)
	}

	stats := filter.GetStats()
	if stats.TotalProcessed != 3 || stats.Unique != 2 || stats.Duplicates != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// Stats accumulate across calls on the same filter
	filter.Filter([]models.NewsItem{{OriginalURL: "https://a.example/2?fbclid=x"}})
	if got := filter.GetStats(); got.TotalProcessed != 4 || got.Duplicates != 2 {
		t.Errorf("unexpected stats after second batch: %+v", got)
	}
}

func TestComputeURLHash(t *testing.T) {
	a := ComputeURLHash("https://a.example/x?fbclid=1")
	b := ComputeURLHash("https://a.example/x")
	if a != b {
		t.Error("tracking params should not change the hash")
	}
	if ComputeURLHash("https://a.example/y") == b {
		t.Error("different paths should hash differently")
	}
}
