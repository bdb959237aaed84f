package sources

import "github.com/vnknews/vnknews/internal/models"

func vietnamnet() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "vietnamnet",
		Name:     "VietNamNet",
		Language: "vi",
		ListingURLs: []string{
			"https://vietnamnet.vn/thoi-su",
			"https://vietnamnet.vn/kinh-doanh",
			"https://vietnamnet.vn/the-gioi",
		},
		ArticlePattern:  `vietnamnet\.vn/.+\d+\.html`,
		DefaultCategory: models.CategorySociety,
		CategoryRules:   vietnameseSections,
		Listing: ListingSelectors{
			Item:    []string{".horizontalPost", ".verticalPost", "div.feature-box"},
			Title:   []string{"h3.horizontalPost__main-title a", "h3.verticalPost__main-title a", "h3 a", "h2 a"},
			Link:    []string{"h3 a@href", "h2 a@href", "a@href"},
			Summary: []string{".horizontalPost__main-desc", ".verticalPost__main-desc"},
		},
		Detail: DetailSelectors{
			Body:    []string{"div.maincontent", "div#maincontent", "div.content-detail"},
			Image:   []string{"div.maincontent figure img", "figure.image img"},
			Summary: []string{"h2.content-detail-sapo", ".content-detail-sapo"},
			Remove:  []string{".article-relate", ".vnn-share-social"},
		},
	}, Hooks{}
}
