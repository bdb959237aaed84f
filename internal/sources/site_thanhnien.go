package sources

import "github.com/vnknews/vnknews/internal/models"

func thanhnien() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "thanhnien",
		Name:     "Thanh Niên",
		Language: "vi",
		ListingURLs: []string{
			"https://thanhnien.vn/thoi-su.htm",
			"https://thanhnien.vn/kinh-te.htm",
			"https://thanhnien.vn/the-gioi.htm",
		},
		ArticlePattern:  `thanhnien\.vn/.+\d+\.htm`,
		DefaultCategory: models.CategorySociety,
		CategoryRules:   vietnameseSections,
		Listing: ListingSelectors{
			Item:    []string{".box-category-item", "div.story", "article.story"},
			Title:   []string{"a.box-category-link-title", "h3.story__title a", "h2 a", "h3 a"},
			Link:    []string{"a.box-category-link-title@href", "h3.story__title a@href", "a@href"},
			Summary: []string{".box-category-sapo", ".story__summary"},
		},
		Detail: DetailSelectors{
			Body:    []string{"div.detail-content", "div.detail-cmain", "div#abody"},
			Image:   []string{"div.detail-content figure img", "figure img"},
			Summary: []string{"h2.detail-sapo", ".detail-sapo"},
			Remove:  []string{".detail__related", ".box-related-news"},
		},
		Readability: true,
	}, Hooks{}
}
