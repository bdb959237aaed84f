package sources

import (
	"strings"

	"github.com/vnknews/vnknews/internal/models"
)

func vnexpress() (SiteConfig, Hooks) {
	cfg := SiteConfig{
		ID:       "vnexpress",
		Name:     "VnExpress",
		Language: "vi",
		ListingURLs: []string{
			"https://vnexpress.net/thoi-su",
			"https://vnexpress.net/kinh-doanh",
			"https://vnexpress.net/the-gioi",
		},
		ArticlePattern:  `vnexpress\.net/.+-\d+\.html`,
		DefaultCategory: models.CategorySociety,
		CategoryRules:   vietnameseSections,
		Listing: ListingSelectors{
			Item:    []string{"article.item-news", "div.item-news"},
			Title:   []string{"h3.title-news a", "h2.title-news a", ".title-news"},
			Link:    []string{"h3.title-news a@href", "h2.title-news a@href", "a@href"},
			Summary: []string{"p.description a", "p.description"},
		},
		Detail: DetailSelectors{
			Body:    []string{"article.fck_detail", "div.fck_detail", "div.sidebar-1 article"},
			Image:   []string{"div.fig-picture img", "article.fck_detail img"},
			Summary: []string{"p.description"},
			Remove:  []string{"p.Normal[align='right']", ".box-tinlienquanv2", ".width_common.box-tinlienquanv2"},
		},
	}

	hooks := Hooks{
		// Video and podcast pages carry no article body.
		AcceptURL: func(rawURL string) bool {
			return !strings.Contains(rawURL, "video.vnexpress.net") && !strings.Contains(rawURL, "/podcast/")
		},
	}
	return cfg, hooks
}
