package sources

import (
	"strings"

	"github.com/vnknews/vnknews/internal/models"
)

func insidevina() (SiteConfig, Hooks) {
	cfg := SiteConfig{
		ID:       "insidevina",
		Name:     "인사이드비나",
		Language: "ko",
		ListingURLs: []string{
			"https://www.insidevina.com/news/articleList.html?sc_section_code=S1N1&view_type=sm",
			"https://www.insidevina.com/news/articleList.html?sc_section_code=S1N2&view_type=sm",
		},
		Headers:         map[string]string{"Accept-Language": koreanAcceptLanguage},
		DefaultCategory: models.CategoryKoreaVietnam,
		CategoryRules: []CategoryRule{
			{Match: "sc_section_code=S1N2", Category: models.CategoryEconomy},
		},
		Listing: ListingSelectors{
			Item:     []string{"#section-list ul.type2 li", "#section-list ul.type1 li", "ul.article-list li"},
			Title:    []string{"h4.titles a", ".list-titles a", "h2 a"},
			Link:     []string{"h4.titles a@href", ".list-titles a@href", "a@href"},
			Summary:  []string{"p.lead a", "p.lead", ".list-summary"},
			Category: []string{"em.info.category", ".list-dated"},
		},
		Detail: DetailSelectors{
			Body:   []string{"article#article-view-content-div", "div#article-view-content-div", "div#articleBody"},
			Image:  []string{"article#article-view-content-div img", "figure img"},
			Remove: []string{".view-copyright", ".view-editors"},
		},
	}

	hooks := Hooks{
		AcceptURL: func(rawURL string) bool {
			return strings.Contains(rawURL, "articleView.html")
		},
	}
	return cfg, hooks
}
