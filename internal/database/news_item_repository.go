package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vnknews/vnknews/internal/ingestion"
	"github.com/vnknews/vnknews/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var newsItemColumns = []string{
	"id", "original_url", "title", "summary", "content", "image_url", "source", "category",
	"translated_title", "translated_summary", "translated_content", "translation_status",
	"status", "is_selected", "is_top_news", "is_card_news", "is_published_main",
	"is_published_daily", "is_sent_sns", "published_at", "created_at", "updated_at",
}

var newsItemSelect = strings.Join(newsItemColumns, ", ")

// NewsItemRepository implements ingestion.NewsRepository using PostgreSQL.
type NewsItemRepository struct {
	db *sql.DB
}

// NewNewsItemRepository creates a new PostgreSQL news item repository.
func NewNewsItemRepository(db *sql.DB) *NewsItemRepository {
	return &NewsItemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNewsItem(row rowScanner) (*models.NewsItem, error) {
	var item models.NewsItem
	err := row.Scan(
		&item.ID,
		&item.OriginalURL,
		&item.Title,
		&item.Summary,
		&item.Content,
		&item.ImageURL,
		&item.Source,
		&item.Category,
		&item.TranslatedTitle,
		&item.TranslatedSummary,
		&item.TranslatedContent,
		&item.TranslationStatus,
		&item.Status,
		&item.IsSelected,
		&item.IsTopNews,
		&item.IsCardNews,
		&item.IsPublishedMain,
		&item.IsPublishedDaily,
		&item.IsSentSNS,
		&item.PublishedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByURL retrieves an item by original URL. It returns nil, nil when absent.
func (r *NewsItemRepository) FindByURL(ctx context.Context, originalURL string) (*models.NewsItem, error) {
	query := `SELECT ` + newsItemSelect + ` FROM news_items WHERE original_url = $1`

	item, err := scanNewsItem(r.db.QueryRowContext(ctx, query, originalURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query news item by url: %w", err)
	}
	return item, nil
}

const insertNewsItem = `
	INSERT INTO news_items (
		id, original_url, title, summary, content, image_url, source, category,
		translated_title, translated_summary, translated_content, translation_status,
		status, is_selected, is_top_news, is_card_news, is_published_main,
		is_published_daily, is_sent_sns, published_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())`

func insertArgs(item models.NewsItem) []any {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return []any{
		item.ID,
		item.OriginalURL,
		item.Title,
		item.Summary,
		item.Content,
		item.ImageURL,
		item.Source,
		item.Category,
		item.TranslatedTitle,
		item.TranslatedSummary,
		item.TranslatedContent,
		item.TranslationStatus,
		item.Status,
		item.IsSelected,
		item.IsTopNews,
		item.IsCardNews,
		item.IsPublishedMain,
		item.IsPublishedDaily,
		item.IsSentSNS,
		item.PublishedAt,
	}
}

// InsertIfAbsent inserts item unless its original URL is already stored. The
// unique constraint decides, so concurrent callers cannot both create a row.
func (r *NewsItemRepository) InsertIfAbsent(ctx context.Context, item models.NewsItem) (*models.NewsItem, bool, error) {
	query := insertNewsItem + `
	ON CONFLICT (original_url) DO NOTHING
	RETURNING ` + newsItemSelect

	created, err := scanNewsItem(r.db.QueryRowContext(ctx, query, insertArgs(item)...))
	if err == nil {
		return created, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to insert news item: %w", err)
	}

	existing, err := r.FindByURL(ctx, item.OriginalURL)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("news item %s vanished after conflict", item.OriginalURL)
	}
	return existing, false, nil
}

// Insert stores a new item, returning ingestion.ErrDuplicateURL on conflict.
func (r *NewsItemRepository) Insert(ctx context.Context, item models.NewsItem) (*models.NewsItem, error) {
	query := insertNewsItem + `
	RETURNING ` + newsItemSelect

	created, err := scanNewsItem(r.db.QueryRowContext(ctx, query, insertArgs(item)...))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ingestion.ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to insert news item: %w", err)
	}
	return created, nil
}

// Update overwrites the crawl-owned fields that are set in update.
func (r *NewsItemRepository) Update(ctx context.Context, id string, update models.NewsItemUpdate) (*models.NewsItem, error) {
	if update.IsEmpty() {
		return r.getByID(ctx, id)
	}

	builder := psql.Update("news_items")
	if update.Summary != nil {
		builder = builder.Set("summary", *update.Summary)
	}
	if update.Content != nil {
		builder = builder.Set("content", *update.Content)
	}
	if update.ImageURL != nil {
		builder = builder.Set("image_url", *update.ImageURL)
	}
	query, args, err := builder.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + newsItemSelect).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	item, err := scanNewsItem(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ingestion.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update news item: %w", err)
	}
	return item, nil
}

func (r *NewsItemRepository) getByID(ctx context.Context, id string) (*models.NewsItem, error) {
	query := `SELECT ` + newsItemSelect + ` FROM news_items WHERE id = $1`

	item, err := scanNewsItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ingestion.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query news item: %w", err)
	}
	return item, nil
}

// GetByIDs retrieves items by id. Unknown ids are skipped.
func (r *NewsItemRepository) GetByIDs(ctx context.Context, ids []string) ([]models.NewsItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + newsItemSelect + ` FROM news_items WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		item, err := scanNewsItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateTranslation stores enrichment output. The translation status column
// belongs to the curation workflow and is not touched.
func (r *NewsItemRepository) UpdateTranslation(ctx context.Context, id string, update models.TranslationUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	builder := psql.Update("news_items")
	if update.TranslatedTitle != nil {
		builder = builder.Set("translated_title", *update.TranslatedTitle)
	}
	if update.TranslatedSummary != nil {
		builder = builder.Set("translated_summary", *update.TranslatedSummary)
	}
	if update.TranslatedContent != nil {
		builder = builder.Set("translated_content", *update.TranslatedContent)
	}
	if update.Category != nil {
		builder = builder.Set("category", string(*update.Category))
	}
	query, args, err := builder.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build translation update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update translation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ingestion.ErrNotFound
	}
	return nil
}
