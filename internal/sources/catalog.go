package sources

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vnknews/vnknews/internal/fetch"
	"github.com/vnknews/vnknews/internal/models"
)

// Defaults are applied to every built-in site that does not set its own value.
type Defaults struct {
	MaxItems    int
	DetailDelay time.Duration
}

type siteFactory func() (SiteConfig, Hooks)

// catalog is every built-in site in crawl order.
var catalog = []siteFactory{
	vnexpress,
	tuoitre,
	thanhnien,
	vietnamnet,
	sggp,
	vietnamplus,
	vietnamnews,
	yonhap,
	insidevina,
}

// vietnameseSections maps the section slugs shared by most Vietnamese outlets.
// Korea-specific paths come first so they win over the generic section.
var vietnameseSections = []CategoryRule{
	{Match: "han-quoc", Category: models.CategoryKoreaVietnam},
	{Match: "viet-han", Category: models.CategoryKoreaVietnam},
	{Match: "/kinh-doanh", Category: models.CategoryEconomy},
	{Match: "/kinh-te", Category: models.CategoryEconomy},
	{Match: "/tai-chinh", Category: models.CategoryEconomy},
	{Match: "/bat-dong-san", Category: models.CategoryEconomy},
	{Match: "/the-gioi", Category: models.CategoryInternational},
	{Match: "/quoc-te", Category: models.CategoryInternational},
	{Match: "/chinh-tri", Category: models.CategoryPolitics},
	{Match: "/du-lich", Category: models.CategoryTravel},
	{Match: "/suc-khoe", Category: models.CategoryHealth},
	{Match: "/the-thao", Category: models.CategorySports},
	{Match: "/giai-tri", Category: models.CategoryCulture},
	{Match: "/van-hoa", Category: models.CategoryCulture},
	{Match: "/thoi-su", Category: models.CategorySociety},
	{Match: "/xa-hoi", Category: models.CategorySociety},
}

// Catalog returns the built-in configuration of every site.
func Catalog() []SiteConfig {
	out := make([]SiteConfig, 0, len(catalog))
	for _, factory := range catalog {
		cfg, _ := factory()
		out = append(out, cfg)
	}
	return out
}

// NewDefaultRegistry builds an adapter for every built-in site.
func NewDefaultRegistry(fetcher fetch.Fetcher, defaults Defaults, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry()
	for _, factory := range catalog {
		cfg, hooks := factory()
		if cfg.MaxItems == 0 {
			cfg.MaxItems = defaults.MaxItems
		}
		if cfg.DetailDelay == 0 {
			cfg.DetailDelay = defaults.DetailDelay
		}

		adapter, err := NewSiteAdapter(cfg, hooks, fetcher, logger)
		if err != nil {
			return nil, fmt.Errorf("build source %s: %w", cfg.ID, err)
		}
		if err := reg.Register(adapter); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
