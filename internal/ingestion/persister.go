package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vnknews/vnknews/internal/models"
)

// Policy decides what happens when an item's URL is already stored.
type Policy int

const (
	// PolicySkipExisting leaves stored rows untouched.
	PolicySkipExisting Policy = iota
	// PolicyRefreshExisting overwrites Summary, Content and ImageURL of stored rows.
	PolicyRefreshExisting
)

func (p Policy) String() string {
	switch p {
	case PolicySkipExisting:
		return "skip_existing"
	case PolicyRefreshExisting:
		return "refresh_existing"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// PersistResult is the per-item outcome of persistence. Err is set when the
// item could not be stored; other items are unaffected.
type PersistResult struct {
	Item      *models.NewsItem
	Created   bool
	Refreshed bool
	Err       error
}

// Persister stores normalized items under one fixed policy.
type Persister struct {
	store  NewsRepository
	policy Policy
	logger *slog.Logger
}

// NewPersister creates a persister.
func NewPersister(store NewsRepository, policy Policy, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store:  store,
		policy: policy,
		logger: logger.With("component", "persister", "policy", policy.String()),
	}
}

// Policy returns the policy the persister was built with.
func (p *Persister) Policy() Policy {
	return p.policy
}

// Persist stores item or applies the policy to the existing row.
func (p *Persister) Persist(ctx context.Context, item models.NewsItem) PersistResult {
	if item.OriginalURL == "" {
		return PersistResult{Err: fmt.Errorf("item %q has no url", item.Title)}
	}

	stored, created, err := p.store.InsertIfAbsent(ctx, item)
	if err != nil {
		p.logger.Error("failed to persist item", "url", item.OriginalURL, "source", item.Source, "error", err)
		return PersistResult{Err: fmt.Errorf("insert %s: %w", item.OriginalURL, err)}
	}
	if created {
		return PersistResult{Item: stored, Created: true}
	}

	if p.policy == PolicySkipExisting {
		return PersistResult{Item: stored}
	}

	update := refreshUpdate(item)
	if update.IsEmpty() {
		return PersistResult{Item: stored}
	}
	refreshed, err := p.store.Update(ctx, stored.ID, update)
	if err != nil {
		p.logger.Error("failed to refresh item", "url", item.OriginalURL, "id", stored.ID, "error", err)
		return PersistResult{Item: stored, Err: fmt.Errorf("refresh %s: %w", item.OriginalURL, err)}
	}
	return PersistResult{Item: refreshed, Refreshed: true}
}

// PersistAll persists items in order, catching per-item errors into results.
func (p *Persister) PersistAll(ctx context.Context, items []models.NewsItem) []PersistResult {
	results := make([]PersistResult, len(items))
	for i, item := range items {
		results[i] = p.Persist(ctx, item)
	}
	return results
}

// refreshUpdate carries only crawl-owned fields that have a real value. A
// summary equal to the title is the normalization fallback, and content or
// image not read from the article page would overwrite a stored body with
// listing data.
func refreshUpdate(item models.NewsItem) models.NewsItemUpdate {
	var update models.NewsItemUpdate
	if item.Summary != "" && item.Summary != item.Title {
		summary := item.Summary
		update.Summary = &summary
	}
	if !item.ContentFromDetail {
		return update
	}
	if item.Content != nil {
		update.Content = item.Content
	}
	if item.ImageURL != nil {
		update.ImageURL = item.ImageURL
	}
	return update
}
