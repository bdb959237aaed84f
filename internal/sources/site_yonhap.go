package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vnknews/vnknews/internal/models"
)

const koreanAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.6,en;q=0.5"

func yonhap() (SiteConfig, Hooks) {
	cfg := SiteConfig{
		ID:       "yonhap",
		Name:     "연합뉴스",
		Language: "ko",
		ListingURLs: []string{
			"https://www.yna.co.kr/international/asia-australia",
			"https://www.yna.co.kr/economy/international-economy",
		},
		Headers:         map[string]string{"Accept-Language": koreanAcceptLanguage},
		ArticlePattern:  `yna\.co\.kr/view/AKR\d+`,
		DefaultCategory: models.CategoryInternational,
		CategoryRules: []CategoryRule{
			{Match: "/economy/", Category: models.CategoryEconomy},
		},
		Listing: ListingSelectors{
			Item:    []string{"div.list-type038 li", "ul.list li", "div.item-box01"},
			Title:   []string{".tit-news", "strong.tit-wrap", ".news-tl a"},
			Link:    []string{"a.tit-wrap@href", ".news-con a@href", "a@href"},
			Summary: []string{"p.lead", ".lead"},
			Image:   []string{"figure img@src", "img@src"},
		},
		Detail: DetailSelectors{
			Body:    []string{"article.story-news", "div.story-news", "div.article-txt"},
			Image:   []string{"div.comp-box.photo-group img", "figure img"},
			Remove:  []string{"p.txt-copyright", "div.writer-zone", ".adrs"},
			Summary: []string{"p.lead"},
		},
	}

	hooks := Hooks{
		AfterList: func(item *RawItem) {
			if strings.Contains(item.Title, "베트남") {
				item.Category = models.CategoryKoreaVietnam
			}
		},
		// Asia desk stories about Korean investment in Vietnam belong to the bilateral section.
		AfterDetail: func(doc *goquery.Document, item *RawItem) {
			body := doc.Find("article.story-news").Text()
			if strings.Contains(body, "베트남") && strings.Contains(body, "한국") {
				item.Category = models.CategoryKoreaVietnam
			}
		},
	}
	return cfg, hooks
}
