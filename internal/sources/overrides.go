package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// SiteOverride replaces individual fields of a site's built-in configuration.
// Empty fields keep the built-in value.
type SiteOverride struct {
	ListingURLs    []string          `yaml:"listing_urls"`
	Headers        map[string]string `yaml:"headers"`
	InsecureTLS    *bool             `yaml:"insecure_tls"`
	MaxItems       int               `yaml:"max_items"`
	DetailDelay    time.Duration     `yaml:"detail_delay"`
	ArticlePattern *string           `yaml:"article_pattern"`
	CategoryRules  []CategoryRule    `yaml:"category_rules"`
	Listing        ListingSelectors  `yaml:"listing"`
	Detail         DetailSelectors   `yaml:"detail"`
	Readability    *bool             `yaml:"readability"`
}

// OverrideFile is the layout of the selectors file.
//
//	sites:
//	  vnexpress:
//	    listing:
//	      title: ["h3.title-news a", "h2.title-news a"]
type OverrideFile struct {
	Sites map[string]SiteOverride `yaml:"sites"`
}

// LoadOverrides reads and parses a selectors file.
func LoadOverrides(path string) (*OverrideFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selectors file: %w", err)
	}

	var file OverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse selectors file: %w", err)
	}
	return &file, nil
}

// Merge layers o on top of base.
func (o SiteOverride) Merge(base SiteConfig) SiteConfig {
	out := base
	if len(o.ListingURLs) > 0 {
		out.ListingURLs = o.ListingURLs
	}
	if len(o.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(o.Headers))
		for k, v := range base.Headers {
			headers[k] = v
		}
		for k, v := range o.Headers {
			headers[k] = v
		}
		out.Headers = headers
	}
	if o.InsecureTLS != nil {
		out.InsecureTLS = *o.InsecureTLS
	}
	if o.MaxItems > 0 {
		out.MaxItems = o.MaxItems
	}
	if o.DetailDelay > 0 {
		out.DetailDelay = o.DetailDelay
	}
	if o.ArticlePattern != nil {
		out.ArticlePattern = *o.ArticlePattern
	}
	if len(o.CategoryRules) > 0 {
		out.CategoryRules = o.CategoryRules
	}
	if o.Readability != nil {
		out.Readability = *o.Readability
	}

	replace(&out.Listing.Item, o.Listing.Item)
	replace(&out.Listing.Title, o.Listing.Title)
	replace(&out.Listing.Link, o.Listing.Link)
	replace(&out.Listing.Summary, o.Listing.Summary)
	replace(&out.Listing.Category, o.Listing.Category)
	replace(&out.Listing.Image, o.Listing.Image)
	replace(&out.Detail.Body, o.Detail.Body)
	replace(&out.Detail.Image, o.Detail.Image)
	replace(&out.Detail.Summary, o.Detail.Summary)
	replace(&out.Detail.Remove, o.Detail.Remove)
	return out
}

func replace(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// ApplyOverrides resets every site adapter to its built-in configuration and
// layers the file on top. Sites missing from the file revert to defaults.
func ApplyOverrides(reg *Registry, file *OverrideFile, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	known := make(map[string]bool)
	for _, a := range reg.All() {
		site, ok := a.(*SiteAdapter)
		if !ok {
			continue
		}
		known[site.ID()] = true

		cfg := site.Defaults()
		if file != nil {
			if o, ok := file.Sites[site.ID()]; ok {
				cfg = o.Merge(cfg)
			}
		}
		if err := site.setConfig(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	if file != nil {
		for id := range file.Sites {
			if !known[id] {
				logger.Warn("selectors file names unknown source", "source", id)
			}
		}
	}
	return errors.Join(errs...)
}

// WatchOverrides applies path once, then reapplies it whenever it changes until
// ctx is cancelled. A file that fails to parse leaves the last good config in place.
func WatchOverrides(ctx context.Context, path string, reg *Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "selectors", "path", path)

	reload := func() {
		file, err := LoadOverrides(path)
		if err != nil {
			logger.Error("failed to load selectors file", "error", err)
			return
		}
		if err := ApplyOverrides(reg, file, logger); err != nil {
			logger.Error("failed to apply selectors file", "error", err)
			return
		}
		logger.Info("selectors applied", "sites", len(file.Sites))
	}
	reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files on save, so watch the directory rather than the file.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("selectors watcher error", "error", err)
			}
		}
	}()

	return nil
}
