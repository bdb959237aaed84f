package sources

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/vnknews/vnknews/internal/models"
)

// trackingParams are dropped from URLs before they are used as dedup keys.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"zarsrc": true,
	"ref":    true,
	"utm_id": true,
	"gidzl":  true,
	"cmpid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"igshid": true,
	"spm":    true,
	"s_cid":  true,
}

// Normalize maps an extracted record onto the canonical NewsItem shape.
// Summary falls back to the title and content falls back to the summary; only
// a body taken from the article page marks the item ContentFromDetail.
func Normalize(raw RawItem, sourceID string, now time.Time) models.NewsItem {
	title := cleanText(raw.Title)
	summary := cleanText(raw.Summary)
	if summary == "" {
		summary = title
	}

	content := strings.TrimSpace(norm.NFC.String(raw.Content))
	fromDetail := content != ""
	if content == "" {
		content = summary
	}

	category := raw.Category
	if !category.IsValid() {
		category = models.CategorySociety
	}

	originalURL := NormalizeURL(raw.URL)
	if originalURL == "" {
		originalURL = strings.TrimSpace(raw.URL)
	}

	return models.NewsItem{
		OriginalURL:       originalURL,
		Title:             title,
		Summary:           summary,
		Content:           models.StringPtr(content),
		ImageURL:          models.StringPtr(strings.TrimSpace(raw.ImageURL)),
		ContentFromDetail: fromDetail,
		Source:            sourceID,
		Category:          category,
		TranslationStatus: models.TranslationStatusPending,
		Status:            models.NewsStatusDraft,
		PublishedAt:       now,
	}
}

// NormalizeURL canonicalizes an article URL for deduplication: lowercase scheme
// and host, no fragment, no tracking parameters, no trailing slash on the path.
// Unparseable or relative input yields "".
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimSuffix(u.Host, ":443")
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			lower := strings.ToLower(key)
			if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String()
}

func cleanText(s string) string {
	return collapseSpace(norm.NFC.String(s))
}
