package sources

import "github.com/vnknews/vnknews/internal/models"

// sggp still negotiates TLS the old way and serves an incomplete chain,
// so it is the one site fetched with verification relaxed.
func sggp() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "sggp",
		Name:     "Sài Gòn Giải Phóng",
		Language: "vi",
		ListingURLs: []string{
			"https://www.sggp.org.vn/xahoi/",
			"https://www.sggp.org.vn/kinhte/",
			"https://www.sggp.org.vn/thegioi/",
		},
		InsecureTLS:     true,
		ArticlePattern:  `sggp\.org\.vn/.+\.(html|post\d+\.html)`,
		DefaultCategory: models.CategorySociety,
		CategoryRules: append([]CategoryRule{
			{Match: "/kinhte/", Category: models.CategoryEconomy},
			{Match: "/thegioi/", Category: models.CategoryInternational},
			{Match: "/xahoi/", Category: models.CategorySociety},
		}, vietnameseSections...),
		Listing: ListingSelectors{
			Item:    []string{"article.story", "div.story", ".box-content li"},
			Title:   []string{".story__heading a", "h2.story__heading a", "h3 a", "h2 a"},
			Link:    []string{".story__heading a@href", "h3 a@href", "h2 a@href", "a@href"},
			Summary: []string{".story__summary", ".summary"},
		},
		Detail: DetailSelectors{
			Body:    []string{".article__body", "div.content", "div#content"},
			Image:   []string{".article__body img", "figure img"},
			Summary: []string{".article__sapo", ".sapo"},
		},
		Readability: true,
	}, Hooks{}
}
