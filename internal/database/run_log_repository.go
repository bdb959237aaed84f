package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vnknews/vnknews/internal/models"
)

// RunLogRepository implements ingestion.RunLogRepository using PostgreSQL.
// Rows are write-once: there is no update or delete.
type RunLogRepository struct {
	db *sql.DB
}

// NewRunLogRepository creates a new PostgreSQL run log repository.
func NewRunLogRepository(db *sql.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

// CreateRunLog inserts a run log.
func (r *RunLogRepository) CreateRunLog(ctx context.Context, log models.RunLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.RunAt.IsZero() {
		log.RunAt = time.Now().UTC()
	}

	var details any // NULL when the run had no failures
	if len(log.ErrorDetails) > 0 {
		data, err := json.Marshal(log.ErrorDetails)
		if err != nil {
			return fmt.Errorf("failed to marshal error details: %w", err)
		}
		details = data
	}

	query := `
		INSERT INTO crawl_logs (id, status, items_found, message, error_details, run_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Status,
		log.ItemsFound,
		log.Message,
		details,
		log.RunAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run log: %w", err)
	}
	return nil
}

// ListRunLogs returns the most recent run logs first.
func (r *RunLogRepository) ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	builder := psql.
		Select("id", "status", "items_found", "message", "error_details", "run_at").
		From("crawl_logs").
		OrderBy("run_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run log query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run logs: %w", err)
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var log models.RunLog
		var details []byte
		if err := rows.Scan(&log.ID, &log.Status, &log.ItemsFound, &log.Message, &details, &log.RunAt); err != nil {
			return nil, fmt.Errorf("failed to scan run log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &log.ErrorDetails); err != nil {
				return nil, fmt.Errorf("failed to unmarshal error details: %w", err)
			}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Store combines the PostgreSQL repositories into an ingestion.Store.
type Store struct {
	*NewsItemRepository
	*RunLogRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		NewsItemRepository: NewNewsItemRepository(db),
		RunLogRepository:   NewRunLogRepository(db),
	}
}
