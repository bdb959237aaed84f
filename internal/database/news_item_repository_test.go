package database

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/vnknews/vnknews/internal/ingestion"
	"github.com/vnknews/vnknews/internal/models"
)

var fixedTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newsItemRow(id, url string) *sqlmock.Rows {
	return sqlmock.NewRows(newsItemColumns).AddRow(
		id, url, "Tiêu đề", "Tóm tắt", "Nội dung", nil, "vnexpress", "Economy",
		nil, nil, nil, "PENDING",
		"DRAFT", false, false, false, false,
		false, false, fixedTime, fixedTime, fixedTime,
	)
}

func testItem(url string) models.NewsItem {
	return models.NewsItem{
		OriginalURL:       url,
		Title:             "Tiêu đề",
		Summary:           "Tóm tắt",
		Content:           models.StringPtr("Nội dung"),
		Source:            "vnexpress",
		Category:          models.CategoryEconomy,
		TranslationStatus: models.TranslationStatusPending,
		Status:            models.NewsStatusDraft,
		PublishedAt:       fixedTime,
	}
}

func newMock(t *testing.T) (*NewsItemRepository, *RunLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	return store.NewsItemRepository, store.RunLogRepository, mock
}

func TestNewsItemRepository_FindByURL(t *testing.T) {
	repo, _, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM news_items WHERE original_url = \\$1").
		WithArgs("https://vnexpress.net/a.html").
		WillReturnRows(newsItemRow("id-1", "https://vnexpress.net/a.html"))

	item, err := repo.FindByURL(ctx, "https://vnexpress.net/a.html")
	if err != nil {
		t.Fatalf("FindByURL() error = %v", err)
	}
	if item == nil || item.ID != "id-1" || item.Category != models.CategoryEconomy {
		t.Fatalf("unexpected item: %+v", item)
	}
	if models.StringValue(item.Content) != "Nội dung" || item.ImageURL != nil || item.TranslatedTitle != nil {
		t.Errorf("nullable columns not scanned correctly: %+v", item)
	}

	mock.ExpectQuery("FROM news_items WHERE original_url = \\$1").
		WithArgs("https://vnexpress.net/missing.html").
		WillReturnRows(sqlmock.NewRows(newsItemColumns))

	missing, err := repo.FindByURL(ctx, "https://vnexpress.net/missing.html")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing url, got %+v, %v", missing, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewsItemRepository_InsertIfAbsent(t *testing.T) {
	repo, _, mock := newMock(t)
	ctx := context.Background()

	t.Run("created", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO news_items .* ON CONFLICT \\(original_url\\) DO NOTHING RETURNING").
			WithArgs(
				sqlmock.AnyArg(), // id
				"https://vnexpress.net/a.html",
				"Tiêu đề",
				"Tóm tắt",
				"Nội dung",
				nil,
				"vnexpress",
				"Economy",
				nil, nil, nil,
				"PENDING",
				"DRAFT",
				false, false, false, false, false, false,
				fixedTime,
			).
			WillReturnRows(newsItemRow("id-1", "https://vnexpress.net/a.html"))

		item, created, err := repo.InsertIfAbsent(ctx, testItem("https://vnexpress.net/a.html"))
		if err != nil {
			t.Fatalf("InsertIfAbsent() error = %v", err)
		}
		if !created || item.ID != "id-1" {
			t.Errorf("expected created item id-1, got %+v created=%v", item, created)
		}
	})

	t.Run("conflict returns existing", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO news_items .* ON CONFLICT").
			WillReturnRows(sqlmock.NewRows(newsItemColumns))
		mock.ExpectQuery("FROM news_items WHERE original_url = \\$1").
			WithArgs("https://vnexpress.net/a.html").
			WillReturnRows(newsItemRow("id-1", "https://vnexpress.net/a.html"))

		item, created, err := repo.InsertIfAbsent(ctx, testItem("https://vnexpress.net/a.html"))
		if err != nil {
			t.Fatalf("InsertIfAbsent() error = %v", err)
		}
		if created || item.ID != "id-1" {
			t.Errorf("expected existing item, got %+v created=%v", item, created)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewsItemRepository_InsertDuplicate(t *testing.T) {
	repo, _, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO news_items").
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	_, err := repo.Insert(context.Background(), testItem("https://vnexpress.net/a.html"))
	if !errors.Is(err, ingestion.ErrDuplicateURL) {
		t.Errorf("expected ErrDuplicateURL, got %v", err)
	}
}

func TestNewsItemRepository_Update(t *testing.T) {
	repo, _, mock := newMock(t)
	ctx := context.Background()

	summary, content := "Tóm tắt mới", "Nội dung mới"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE news_items SET summary = $1, content = $2, updated_at = NOW() WHERE id = $3 RETURNING")).
		WithArgs(summary, content, "id-1").
		WillReturnRows(newsItemRow("id-1", "https://vnexpress.net/a.html"))

	if _, err := repo.Update(ctx, "id-1", models.NewsItemUpdate{Summary: &summary, Content: &content}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	mock.ExpectQuery("UPDATE news_items SET summary").
		WillReturnRows(sqlmock.NewRows(newsItemColumns))

	if _, err := repo.Update(ctx, "missing", models.NewsItemUpdate{Summary: &summary}); !errors.Is(err, ingestion.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewsItemRepository_GetByIDs(t *testing.T) {
	repo, _, mock := newMock(t)

	rows := newsItemRow("id-1", "https://vnexpress.net/1.html")
	rows.AddRow(
		"id-2", "https://vnexpress.net/2.html", "Hai", "Hai", nil, "https://img/2.jpg", "vnexpress", "Society",
		"둘", nil, nil, "DRAFT",
		"PUBLISHED", true, false, false, false,
		false, false, fixedTime, fixedTime, fixedTime,
	)
	mock.ExpectQuery("WHERE id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	items, err := repo.GetByIDs(context.Background(), []string{"id-1", "id-2"})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if models.StringValue(items[1].TranslatedTitle) != "둘" || !items[1].IsSelected || items[1].Status != models.NewsStatusPublished {
		t.Errorf("unexpected second item: %+v", items[1])
	}

	empty, err := repo.GetByIDs(context.Background(), nil)
	if err != nil || empty != nil {
		t.Errorf("expected no query for empty ids, got %v, %v", empty, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewsItemRepository_UpdateTranslation(t *testing.T) {
	repo, _, mock := newMock(t)
	ctx := context.Background()

	title := "제목"
	category := models.CategoryKoreaVietnam

	mock.ExpectExec(regexp.QuoteMeta("UPDATE news_items SET translated_title = $1, category = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs(title, "Korea-Vietnam", "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateTranslation(ctx, "id-1", models.TranslationUpdate{TranslatedTitle: &title, Category: &category}); err != nil {
		t.Fatalf("UpdateTranslation() error = %v", err)
	}

	mock.ExpectExec("UPDATE news_items SET translated_title").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateTranslation(ctx, "missing", models.TranslationUpdate{TranslatedTitle: &title}); !errors.Is(err, ingestion.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.UpdateTranslation(ctx, "id-1", models.TranslationUpdate{}); err != nil {
		t.Errorf("empty update should be a no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// errorDetailKeys matches a JSONB argument whose object has exactly the given keys.
type errorDetailKeys []string

func (k errorDetailKeys) Match(v driver.Value) bool {
	data, ok := v.([]byte)
	if !ok {
		return false
	}
	var decoded map[string]models.SourceError
	if err := json.Unmarshal(data, &decoded); err != nil {
		return false
	}
	var keys []string
	for key, detail := range decoded {
		if detail.Message == "" {
			return false
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",") == strings.Join(k, ",")
}

func TestRunLogRepository_Create(t *testing.T) {
	_, repo, mock := newMock(t)

	log := models.RunLog{
		Status:     models.RunStatusPartial,
		ItemsFound: 4,
		Message:    "Crawled 6 items from 3 sources, 4 new; 2 sources failed: A, B",
		ErrorDetails: map[string]models.SourceError{
			"A": {Message: "listing 503", Time: fixedTime},
			"B": {Message: "listing 404", Time: fixedTime},
		},
		RunAt: fixedTime,
	}

	mock.ExpectExec("INSERT INTO crawl_logs").
		WithArgs(sqlmock.AnyArg(), "PARTIAL", 4, log.Message, errorDetailKeys{"A", "B"}, fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateRunLog(context.Background(), log); err != nil {
		t.Fatalf("CreateRunLog() error = %v", err)
	}

	mock.ExpectExec("INSERT INTO crawl_logs").
		WithArgs(sqlmock.AnyArg(), "SUCCESS", 2, "ok", nil, fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateRunLog(context.Background(), models.RunLog{Status: models.RunStatusSuccess, ItemsFound: 2, Message: "ok", RunAt: fixedTime}); err != nil {
		t.Fatalf("CreateRunLog() without details error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunLogRepository_List(t *testing.T) {
	_, repo, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "status", "items_found", "message", "error_details", "run_at"}).
		AddRow("log-2", "PARTIAL", 3, "partial", []byte(`{"sggp":{"message":"tls","time":"2026-03-01T08:00:00Z"}}`), fixedTime).
		AddRow("log-1", "SUCCESS", 5, "ok", nil, fixedTime.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status, items_found, message, error_details, run_at FROM crawl_logs ORDER BY run_at DESC LIMIT 5")).
		WillReturnRows(rows)

	logs, err := repo.ListRunLogs(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRunLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Status != models.RunStatusPartial || logs[0].ErrorDetails["sggp"].Message != "tls" {
		t.Errorf("unexpected first log: %+v", logs[0])
	}
	if logs[1].ErrorDetails != nil {
		t.Errorf("NULL error details should decode to nil, got %v", logs[1].ErrorDetails)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_news_items.sql": {Data: []byte("CREATE TABLE news_items (id UUID)")},
		"002_crawl_logs.sql": {Data: []byte("CREATE TABLE crawl_logs (id UUID)")},
		"README.md":          {Data: []byte("not a migration")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("001_news_items.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE crawl_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("002_crawl_logs.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := RunMigrations(context.Background(), db, fsys, testLogger())
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied, got %d", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunMigrations_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE broken (")}}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE broken").
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	applied, err := RunMigrations(context.Background(), db, fsys, testLogger())
	if err == nil || !strings.Contains(err.Error(), "001_bad.sql") {
		t.Errorf("expected error naming the migration, got %v", err)
	}
	if applied != 0 {
		t.Errorf("expected 0 applied, got %d", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
