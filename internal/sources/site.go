package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/vnknews/vnknews/internal/fetch"
	"github.com/vnknews/vnknews/internal/models"
)

const (
	DefaultMaxItems    = 8
	DefaultDetailDelay = 700 * time.Millisecond
)

// ListingSelectors locate candidate articles on an index page. Item selectors
// pick containers; the remaining fields are evaluated inside each container.
type ListingSelectors struct {
	Item     []string `yaml:"item"`
	Title    []string `yaml:"title"`
	Link     []string `yaml:"link"`
	Summary  []string `yaml:"summary"`
	Category []string `yaml:"category"`
	Image    []string `yaml:"image"`
}

// DetailSelectors locate the body and image on an article page.
type DetailSelectors struct {
	Body    []string `yaml:"body"`
	Image   []string `yaml:"image"`
	Summary []string `yaml:"summary"`
	Remove  []string `yaml:"remove"`
}

// CategoryRule assigns Category when the article URL contains Match.
type CategoryRule struct {
	Match    string          `yaml:"match"`
	Category models.Category `yaml:"category"`
}

// SiteConfig is the data half of an adapter.
type SiteConfig struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Language    string            `yaml:"language"`
	ListingURLs []string          `yaml:"listing_urls"`
	Headers     map[string]string `yaml:"headers"`
	InsecureTLS bool              `yaml:"insecure_tls"`
	MaxItems    int               `yaml:"max_items"`
	DetailDelay time.Duration     `yaml:"detail_delay"`

	// ArticlePattern, when set, must match a candidate URL for it to be kept.
	ArticlePattern  string           `yaml:"article_pattern"`
	DefaultCategory models.Category  `yaml:"default_category"`
	CategoryRules   []CategoryRule   `yaml:"category_rules"`
	Listing         ListingSelectors `yaml:"listing"`
	Detail          DetailSelectors  `yaml:"detail"`
	Readability     bool             `yaml:"readability"`
}

// Hooks are the code half of an adapter, for quirks selectors cannot express.
type Hooks struct {
	AcceptURL   func(rawURL string) bool
	AfterList   func(item *RawItem)
	AfterDetail func(doc *goquery.Document, item *RawItem)
}

// SiteAdapter implements Adapter with a listing phase followed by a sequential,
// rate-limited detail phase.
type SiteAdapter struct {
	mu      sync.RWMutex
	base    SiteConfig
	cfg     SiteConfig
	pattern *regexp.Regexp

	hooks   Hooks
	fetcher fetch.Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewSiteAdapter validates cfg and builds an adapter around fetcher.
func NewSiteAdapter(cfg SiteConfig, hooks Hooks, fetcher fetch.Fetcher, logger *slog.Logger) (*SiteAdapter, error) {
	if cfg.ID == "" {
		return nil, errors.New("site config requires an id")
	}
	if len(cfg.ListingURLs) == 0 {
		return nil, fmt.Errorf("site %s: no listing urls", cfg.ID)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &SiteAdapter{
		base:    cfg,
		hooks:   hooks,
		fetcher: fetcher,
		logger:  logger.With("source", cfg.ID),
		now:     time.Now,
	}
	if err := s.setConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SiteAdapter) setConfig(cfg SiteConfig) error {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.DetailDelay <= 0 {
		cfg.DetailDelay = DefaultDetailDelay
	}
	if len(cfg.Listing.Link) == 0 {
		cfg.Listing.Link = []string{"a@href"}
	}
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = models.CategorySociety
	}

	var pattern *regexp.Regexp
	if cfg.ArticlePattern != "" {
		p, err := regexp.Compile(cfg.ArticlePattern)
		if err != nil {
			return fmt.Errorf("site %s: article pattern: %w", cfg.ID, err)
		}
		pattern = p
	}

	s.mu.Lock()
	s.cfg = cfg
	s.pattern = pattern
	s.mu.Unlock()
	return nil
}

func (s *SiteAdapter) ID() string       { return s.base.ID }
func (s *SiteAdapter) Name() string     { return s.base.Name }
func (s *SiteAdapter) Language() string { return s.base.Language }

// Config returns the configuration currently in effect.
func (s *SiteAdapter) Config() SiteConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Defaults returns the built-in configuration overrides are applied on top of.
func (s *SiteAdapter) Defaults() SiteConfig {
	return s.base
}

// Crawl runs both phases. It fails only when no listing page could be fetched;
// missing selectors and failed detail pages degrade the result instead.
func (s *SiteAdapter) Crawl(ctx context.Context) ([]models.NewsItem, error) {
	s.mu.RLock()
	cfg, pattern := s.cfg, s.pattern
	s.mu.RUnlock()

	start := time.Now()
	candidates, err := s.collect(ctx, cfg, pattern)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Every(cfg.DetailDelay), 1)
	items := make([]models.NewsItem, 0, len(candidates))
	detailFailures := 0

	for i := range candidates {
		raw := candidates[i]
		if err := limiter.Wait(ctx); err != nil {
			// Out of time: keep the listing data for whatever is left.
			s.logger.Warn("detail phase interrupted", "remaining", len(candidates)-i, "error", err)
			for _, c := range candidates[i:] {
				items = append(items, Normalize(c, cfg.ID, s.now()))
			}
			break
		}

		if err := s.detail(ctx, cfg, &raw); err != nil {
			detailFailures++
			s.logger.Warn("detail fetch failed, using listing summary",
				"url", raw.URL,
				"error", err)
		}
		items = append(items, Normalize(raw, cfg.ID, s.now()))
	}

	s.logger.Info("crawl complete",
		"items", len(items),
		"detail_failures", detailFailures,
		"duration_ms", time.Since(start).Milliseconds())

	return items, nil
}

// collect runs the listing phase across every listing page.
func (s *SiteAdapter) collect(ctx context.Context, cfg SiteConfig, pattern *regexp.Regexp) ([]RawItem, error) {
	seen := make(map[string]bool)
	var out []RawItem
	var lastErr error
	failed := 0

	for _, listingURL := range cfg.ListingURLs {
		if len(out) >= cfg.MaxItems {
			break
		}

		resp, err := s.fetcher.Fetch(ctx, listingURL, fetch.Options{Headers: cfg.Headers, InsecureTLS: cfg.InsecureTLS})
		if err != nil {
			failed++
			lastErr = err
			s.logger.Warn("listing fetch failed", "url", listingURL, "error", err)
			continue
		}
		doc, err := resp.Document()
		if err != nil {
			failed++
			lastErr = err
			continue
		}

		base := pageURL(resp)
		found := 0
		FindItems(doc, cfg.Listing.Item).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			raw, ok := s.listingItem(cfg, pattern, node, base, listingURL)
			if !ok {
				return true
			}
			key := NormalizeURL(raw.URL)
			if key == "" || seen[key] {
				return true
			}
			seen[key] = true
			out = append(out, raw)
			found++
			return len(out) < cfg.MaxItems
		})

		if found == 0 {
			s.logger.Warn("listing yielded no items", "url", listingURL)
		}
	}

	if failed == len(cfg.ListingURLs) {
		return nil, fmt.Errorf("all %d listing pages failed: %w", failed, lastErr)
	}
	return out, nil
}

func (s *SiteAdapter) listingItem(cfg SiteConfig, pattern *regexp.Regexp, node *goquery.Selection, base *url.URL, listingURL string) (RawItem, bool) {
	title := Extract(node, cfg.Listing.Title)
	link := resolveURL(base, Extract(node, cfg.Listing.Link))
	if title == "" || link == "" {
		return RawItem{}, false
	}
	if pattern != nil && !pattern.MatchString(link) {
		return RawItem{}, false
	}
	if s.hooks.AcceptURL != nil && !s.hooks.AcceptURL(link) {
		return RawItem{}, false
	}

	raw := RawItem{
		Title:        title,
		URL:          link,
		Summary:      Extract(node, cfg.Listing.Summary),
		CategoryHint: Extract(node, cfg.Listing.Category),
	}
	if len(cfg.Listing.Image) > 0 {
		raw.ImageURL = resolveURL(base, Extract(node, cfg.Listing.Image))
	}
	raw.Category = Categorize(cfg, raw.URL, listingURL, raw.CategoryHint)

	if s.hooks.AfterList != nil {
		s.hooks.AfterList(&raw)
	}
	return raw, true
}

// detail fills Content and ImageURL from the article page. On error raw keeps
// its listing data.
func (s *SiteAdapter) detail(ctx context.Context, cfg SiteConfig, raw *RawItem) error {
	resp, err := s.fetcher.Fetch(ctx, raw.URL, fetch.Options{Headers: cfg.Headers, InsecureTLS: cfg.InsecureTLS})
	if err != nil {
		return err
	}
	doc, err := resp.Document()
	if err != nil {
		return err
	}
	base := pageURL(resp)

	body := ExtractHTML(doc.Selection, cfg.Detail.Body, cfg.Detail.Remove)
	if body == "" && cfg.Readability {
		body = readabilityBody(string(resp.Body), base)
	}
	if body != "" {
		raw.Content = body
	}

	if img := ExtractImage(doc, cfg.Detail.Image, base); img != "" {
		raw.ImageURL = img
	}

	if raw.Summary == "" {
		raw.Summary = Extract(doc.Selection, append(append([]string(nil), cfg.Detail.Summary...), summaryMeta...))
	}

	if s.hooks.AfterDetail != nil {
		s.hooks.AfterDetail(doc, raw)
	}

	if body == "" {
		return fmt.Errorf("no body selector matched on %s", raw.URL)
	}
	return nil
}

// Categorize applies the URL rules to the article URL, then to the listing
// page it was found on, then falls back to the listing hint and the site
// default. Many outlets keep the section only in the listing URL.
func Categorize(cfg SiteConfig, articleURL, listingURL, hint string) models.Category {
	for _, u := range []string{articleURL, listingURL} {
		if c, ok := matchRule(cfg.CategoryRules, u); ok {
			return c
		}
	}
	if c, ok := models.ParseCategory(hint); ok {
		return c
	}
	if cfg.DefaultCategory.IsValid() {
		return cfg.DefaultCategory
	}
	return models.CategorySociety
}

func matchRule(rules []CategoryRule, rawURL string) (models.Category, bool) {
	if rawURL == "" {
		return "", false
	}
	lower := strings.ToLower(rawURL)
	for _, rule := range rules {
		if rule.Match != "" && strings.Contains(lower, strings.ToLower(rule.Match)) && rule.Category.IsValid() {
			return rule.Category, true
		}
	}
	return "", false
}

func pageURL(resp *fetch.Response) *url.URL {
	for _, candidate := range []string{resp.FinalURL, resp.URL} {
		if u, err := url.Parse(candidate); err == nil && u.IsAbs() {
			return u
		}
	}
	return nil
}
