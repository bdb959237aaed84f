package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/vnknews/vnknews/internal/models"
	"github.com/vnknews/vnknews/internal/sources"
)

// Deduplicator identifies items already seen by URL.
type Deduplicator interface {
	// IsNew checks if an item has not been seen.
	IsNew(item models.NewsItem) bool

	// Mark records an item as seen.
	Mark(item models.NewsItem)
}

// MemoryDeduplicator is a concurrency-safe in-memory Deduplicator scoped to
// one run.
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]string // URL hash -> source that claimed it first
}

// NewMemoryDeduplicator creates an empty deduplicator.
func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[string]string)}
}

// IsNew checks if an item's URL has been seen.
func (d *MemoryDeduplicator) IsNew(item models.NewsItem) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.seen[ComputeURLHash(item.OriginalURL)]
	return !exists
}

// Mark records an item as seen.
func (d *MemoryDeduplicator) Mark(item models.NewsItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[ComputeURLHash(item.OriginalURL)] = item.Source
}

// ComputeURLHash fingerprints a URL after normalization, so tracking
// parameters and fragments do not defeat dedup.
func ComputeURLHash(rawURL string) string {
	key := sources.NormalizeURL(rawURL)
	if key == "" {
		key = rawURL
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// DeduplicationStats counts what a DeduplicationFilter has seen.
type DeduplicationStats struct {
	TotalProcessed int
	Duplicates     int
	Unique         int
}

// DeduplicationFilter wraps a deduplicator to track statistics.
type DeduplicationFilter struct {
	dedup Deduplicator
	stats DeduplicationStats
}

// NewDeduplicationFilter creates a new filter with stats tracking.
func NewDeduplicationFilter(dedup Deduplicator) *DeduplicationFilter {
	return &DeduplicationFilter{dedup: dedup}
}

// Filter removes duplicates, keeping the first occurrence of each URL.
func (f *DeduplicationFilter) Filter(items []models.NewsItem) []models.NewsItem {
	unique := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		f.stats.TotalProcessed++

		if f.dedup.IsNew(item) {
			f.dedup.Mark(item)
			unique = append(unique, item)
			f.stats.Unique++
		} else {
			f.stats.Duplicates++
		}
	}

	return unique
}

// GetStats returns the current deduplication statistics.
func (f *DeduplicationFilter) GetStats() DeduplicationStats {
	return f.stats
}
