package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vnknews/vnknews/internal/models"
)

func newsItem(source, url, title string) models.NewsItem {
	return models.NewsItem{
		OriginalURL:       url,
		Title:             title,
		Summary:           title,
		Source:            source,
		Category:          models.CategorySociety,
		Status:            models.NewsStatusDraft,
		TranslationStatus: models.TranslationStatusPending,
		PublishedAt:       time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Insert(ctx, newsItem("vnexpress", "https://vnexpress.net/a.html", "A"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	t.Run("find existing", func(t *testing.T) {
		found, err := store.FindByURL(ctx, "https://vnexpress.net/a.html")
		if err != nil {
			t.Fatalf("FindByURL returned error: %v", err)
		}
		if found == nil || found.ID != created.ID {
			t.Fatalf("expected item %s, got %+v", created.ID, found)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		found, err := store.FindByURL(ctx, "https://vnexpress.net/missing.html")
		if err != nil {
			t.Errorf("FindByURL returned error: %v", err)
		}
		if found != nil {
			t.Error("expected nil for unknown url")
		}
	})

	t.Run("duplicate insert", func(t *testing.T) {
		_, err := store.Insert(ctx, newsItem("tuoitre", "https://vnexpress.net/a.html", "A again"))
		if !errors.Is(err, ErrDuplicateURL) {
			t.Errorf("expected ErrDuplicateURL, got %v", err)
		}
	})
}

func TestMemoryStore_InsertIfAbsentConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.InsertIfAbsent(ctx, newsItem("vnexpress", "https://vnexpress.net/same.html", "Same"))
			if err != nil {
				t.Errorf("InsertIfAbsent failed: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one insert to create a row, got %d", createdCount)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 stored item, got %d", store.Count())
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item := newsItem("vnexpress", "https://vnexpress.net/b.html", "B")
	item.Content = models.StringPtr("old body")
	stored, _ := store.Insert(ctx, item)

	summary := "new summary"
	updated, err := store.Update(ctx, stored.ID, models.NewsItemUpdate{Summary: &summary})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Summary != "new summary" {
		t.Errorf("summary not updated: %q", updated.Summary)
	}
	if models.StringValue(updated.Content) != "old body" {
		t.Errorf("nil fields must be left unchanged, content = %q", models.StringValue(updated.Content))
	}

	if _, err := store.Update(ctx, "nope", models.NewsItemUpdate{Summary: &summary}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Translation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, _ := store.Insert(ctx, newsItem("vnexpress", "https://vnexpress.net/1.html", "One"))
	b, _ := store.Insert(ctx, newsItem("vnexpress", "https://vnexpress.net/2.html", "Two"))

	items, err := store.GetByIDs(ctx, []string{a.ID, "missing", b.ID})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	title := "하나"
	category := models.CategoryEconomy
	if err := store.UpdateTranslation(ctx, a.ID, models.TranslationUpdate{TranslatedTitle: &title, Category: &category}); err != nil {
		t.Fatalf("UpdateTranslation failed: %v", err)
	}

	found, _ := store.FindByURL(ctx, a.OriginalURL)
	if models.StringValue(found.TranslatedTitle) != "하나" || found.Category != models.CategoryEconomy {
		t.Errorf("translation not stored: %+v", found)
	}
	if found.TranslationStatus != models.TranslationStatusPending {
		t.Errorf("translation status must not change, got %s", found.TranslationStatus)
	}
}

func TestMemoryStore_RunLogs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := store.CreateRunLog(ctx, models.RunLog{
			Status: models.RunStatusSuccess,
			RunAt:  base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("CreateRunLog failed: %v", err)
		}
	}

	logs, err := store.ListRunLogs(ctx, 3)
	if err != nil {
		t.Fatalf("ListRunLogs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if !logs[0].RunAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("expected newest first, got %v", logs[0].RunAt)
	}
	if logs[0].ID == "" {
		t.Error("expected run log id to be assigned")
	}
}
