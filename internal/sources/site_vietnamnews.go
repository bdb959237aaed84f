package sources

import "github.com/vnknews/vnknews/internal/models"

func vietnamnews() (SiteConfig, Hooks) {
	return SiteConfig{
		ID:       "vietnamnews",
		Name:     "Viet Nam News",
		Language: "en",
		ListingURLs: []string{
			"https://vietnamnews.vn/society",
			"https://vietnamnews.vn/economy",
			"https://vietnamnews.vn/politics-laws",
		},
		ArticlePattern:  `vietnamnews\.vn/.+\.html`,
		DefaultCategory: models.CategorySociety,
		CategoryRules: []CategoryRule{
			{Match: "korea", Category: models.CategoryKoreaVietnam},
			{Match: "/economy/", Category: models.CategoryEconomy},
			{Match: "/politics-laws/", Category: models.CategoryPolitics},
			{Match: "/world/", Category: models.CategoryInternational},
			{Match: "/life-style/travel", Category: models.CategoryTravel},
			{Match: "/sports/", Category: models.CategorySports},
			{Match: "/society/", Category: models.CategorySociety},
		},
		Listing: ListingSelectors{
			Item:    []string{"article.story", "div.story", "ul.list li"},
			Title:   []string{"h2 a", "h3 a", ".story__title a"},
			Link:    []string{"h2 a@href", "h3 a@href", "a@href"},
			Summary: []string{".story__summary", "div.summary", "p"},
		},
		Detail: DetailSelectors{
			Body:    []string{"div#abody", "div.detail__content", "div.article-body"},
			Image:   []string{"div#abody img", "div.detail__content img"},
			Summary: []string{"div.sapo", ".detail__summary"},
		},
		Readability: true,
	}, Hooks{}
}
