package sources

import "github.com/vnknews/vnknews/internal/models"

func vietnamplus() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "vietnamplus",
		Name:     "VietnamPlus",
		Language: "vi",
		ListingURLs: []string{
			"https://www.vietnamplus.vn/xa-hoi/",
			"https://www.vietnamplus.vn/kinh-te/",
			"https://www.vietnamplus.vn/the-gioi/",
		},
		ArticlePattern:  `vietnamplus\.vn/.+post\d+\.vnp`,
		DefaultCategory: models.CategorySociety,
		CategoryRules:   vietnameseSections,
		Listing: ListingSelectors{
			Item:    []string{"article.story", "div.story"},
			Title:   []string{".story__title a", "h2 a", "h3 a"},
			Link:    []string{".story__title a@href", "h2 a@href", "h3 a@href", "a@href"},
			Summary: []string{".story__summary", ".story__sapo"},
			Image:   []string{".story__thumb img@data-src", ".story__thumb img@src"},
		},
		Detail: DetailSelectors{
			Body:    []string{".article__body", "div.content.article-body", ".article-content"},
			Image:   []string{".article__body img", ".article__avatar img"},
			Summary: []string{".article__sapo"},
			Remove:  []string{".article__tag", ".box-related"},
		},
	}, Hooks{}
}
