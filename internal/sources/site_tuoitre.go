package sources

import "github.com/vnknews/vnknews/internal/models"

func tuoitre() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "tuoitre",
		Name:     "Tuổi Trẻ",
		Language: "vi",
		ListingURLs: []string{
			"https://tuoitre.vn/thoi-su.htm",
			"https://tuoitre.vn/kinh-doanh.htm",
			"https://tuoitre.vn/the-gioi.htm",
		},
		ArticlePattern:  `tuoitre\.vn/.+\d+\.htm`,
		DefaultCategory: models.CategorySociety,
		CategoryRules:   vietnameseSections,
		Listing: ListingSelectors{
			Item:    []string{".box-category-item", ".news-item", "li.news-item"},
			Title:   []string{"a.box-category-link-title", "h3.box-title-text a", "h3 a"},
			Link:    []string{"a.box-category-link-title@href", "h3 a@href", "a@href"},
			Summary: []string{"p.box-category-sapo", ".sapo"},
			Image:   []string{"img.box-category-avatar@src", "img@src"},
		},
		Detail: DetailSelectors{
			Body:    []string{"div.detail-content", "div#main-detail-body", "div.detail-cmain"},
			Image:   []string{"div.detail-content figure img", "div.VCSortableInPreviewMode img"},
			Summary: []string{"h2.detail-sapo", "p.detail-sapo"},
			Remove:  []string{".relate-container", ".VCSortableInPreviewMode[type='RelatedNewsBox']"},
		},
		Readability: true,
	}, Hooks{}
}
