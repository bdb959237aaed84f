package ingestion

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnknews/vnknews/internal/models"
)

// ErrDuplicateURL is returned by Insert when the original URL is already stored.
var ErrDuplicateURL = errors.New("news item with this original url already exists")

// ErrNotFound is returned by Update when the id does not exist.
var ErrNotFound = errors.New("news item not found")

// NewsRepository defines the operations the pipeline performs on stored items.
type NewsRepository interface {
	// FindByURL returns the item stored under originalURL, or nil when absent.
	FindByURL(ctx context.Context, originalURL string) (*models.NewsItem, error)

	// InsertIfAbsent stores item unless its URL exists. The returned bool is true
	// when a row was created; otherwise the existing row is returned.
	InsertIfAbsent(ctx context.Context, item models.NewsItem) (*models.NewsItem, bool, error)

	// Insert stores a new item, failing with ErrDuplicateURL on conflict.
	Insert(ctx context.Context, item models.NewsItem) (*models.NewsItem, error)

	// Update applies crawl-owned field changes to an existing item.
	Update(ctx context.Context, id string, update models.NewsItemUpdate) (*models.NewsItem, error)

	// GetByIDs returns the items with the given ids in unspecified order.
	GetByIDs(ctx context.Context, ids []string) ([]models.NewsItem, error)

	// UpdateTranslation stores enrichment output.
	UpdateTranslation(ctx context.Context, id string, update models.TranslationUpdate) error
}

// RunLogRepository stores run audit records. There is no update path.
type RunLogRepository interface {
	CreateRunLog(ctx context.Context, log models.RunLog) error
	ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error)
}

// Store is the storage capability the crawl core consumes.
type Store interface {
	NewsRepository
	RunLogRepository
}

// MemoryStore implements Store in memory for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]models.NewsItem
	urlIdx map[string]string // original URL -> ID
	logs   []models.RunLog
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]models.NewsItem),
		urlIdx: make(map[string]string),
		now:    time.Now,
	}
}

// FindByURL retrieves an item by original URL.
func (s *MemoryStore) FindByURL(ctx context.Context, originalURL string) (*models.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.urlIdx[originalURL]
	if !ok {
		return nil, nil
	}
	item := s.items[id]
	return &item, nil
}

// InsertIfAbsent checks and inserts under one lock.
func (s *MemoryStore) InsertIfAbsent(ctx context.Context, item models.NewsItem) (*models.NewsItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.urlIdx[item.OriginalURL]; ok {
		existing := s.items[id]
		return &existing, false, nil
	}
	created := s.insertLocked(item)
	return &created, true, nil
}

// Insert stores a new item.
func (s *MemoryStore) Insert(ctx context.Context, item models.NewsItem) (*models.NewsItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urlIdx[item.OriginalURL]; ok {
		return nil, ErrDuplicateURL
	}
	created := s.insertLocked(item)
	return &created, nil
}

func (s *MemoryStore) insertLocked(item models.NewsItem) models.NewsItem {
	now := s.now()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	s.items[item.ID] = item
	s.urlIdx[item.OriginalURL] = item.ID
	return item
}

// Update modifies the crawl-owned fields of an item.
func (s *MemoryStore) Update(ctx context.Context, id string, update models.NewsItemUpdate) (*models.NewsItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Summary != nil {
		item.Summary = *update.Summary
	}
	if update.Content != nil {
		item.Content = update.Content
	}
	if update.ImageURL != nil {
		item.ImageURL = update.ImageURL
	}
	item.UpdatedAt = s.now()
	s.items[id] = item
	return &item, nil
}

// GetByIDs retrieves items by id, skipping unknown ids.
func (s *MemoryStore) GetByIDs(ctx context.Context, ids []string) ([]models.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.NewsItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// UpdateTranslation stores enrichment output.
func (s *MemoryStore) UpdateTranslation(ctx context.Context, id string, update models.TranslationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if update.TranslatedTitle != nil {
		item.TranslatedTitle = update.TranslatedTitle
	}
	if update.TranslatedSummary != nil {
		item.TranslatedSummary = update.TranslatedSummary
	}
	if update.TranslatedContent != nil {
		item.TranslatedContent = update.TranslatedContent
	}
	if update.Category != nil {
		item.Category = *update.Category
	}
	item.UpdatedAt = s.now()
	s.items[id] = item
	return nil
}

// CreateRunLog appends a run log.
func (s *MemoryStore) CreateRunLog(ctx context.Context, log models.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	s.logs = append(s.logs, log)
	return nil
}

// ListRunLogs returns the most recent logs first.
func (s *MemoryStore) ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.RunLog(nil), s.logs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RunAt.After(out[j].RunAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored items.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// All returns every stored item ordered by creation time.
func (s *MemoryStore) All() []models.NewsItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.NewsItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
