package sources

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// A selector entry is a CSS selector, optionally suffixed with "@attr" to read an
// attribute instead of text. "@href" alone reads the attribute of the scope itself.

// defaultRemove strips markup that never belongs in a stored article body.
var defaultRemove = []string{
	"script", "style", "noscript", "iframe", "form", "button", "ins",
	".ads", ".advertisement", ".banner", ".box-related", ".related-news",
	".social-share", ".share", "[class*='adsbygoogle']",
}

// imageMeta is consulted before any in-body image.
var imageMeta = []string{
	`meta[property="og:image"]@content`,
	`meta[property="og:image:url"]@content`,
	`meta[name="twitter:image"]@content`,
	`meta[name="twitter:image:src"]@content`,
}

var summaryMeta = []string{
	`meta[property="og:description"]@content`,
	`meta[name="description"]@content`,
}

func splitSelector(entry string) (css, attr string) {
	entry = strings.TrimSpace(entry)
	if i := strings.LastIndex(entry, "@"); i >= 0 && !strings.ContainsAny(entry[i:], "]'\"") {
		return strings.TrimSpace(entry[:i]), strings.TrimSpace(entry[i+1:])
	}
	return entry, ""
}

func pick(scope *goquery.Selection, css string) *goquery.Selection {
	if css == "" {
		return scope
	}
	return scope.Find(css).First()
}

// Extract returns the value of the first selector that yields non-empty text.
// Later selectors are only tried when earlier ones produce nothing; values are
// never combined across selectors.
func Extract(scope *goquery.Selection, selectors []string) string {
	for _, entry := range selectors {
		css, attr := splitSelector(entry)
		node := pick(scope, css)
		if node.Length() == 0 {
			continue
		}

		var value string
		if attr != "" {
			value, _ = node.Attr(attr)
		} else {
			value = node.Text()
		}
		if value = collapseSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// ExtractHTML returns the cleaned inner HTML of the first selector whose match
// carries visible text.
func ExtractHTML(scope *goquery.Selection, selectors, remove []string) string {
	for _, entry := range selectors {
		css, _ := splitSelector(entry)
		node := pick(scope, css)
		if node.Length() == 0 {
			continue
		}
		if html := cleanBody(node, remove); html != "" {
			return html
		}
	}
	return ""
}

// FindItems returns the containers for the first item selector that matches anything.
func FindItems(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, css := range selectors {
		if found := doc.Find(css); found.Length() > 0 {
			return found
		}
	}
	return doc.Find("__none__")
}

func cleanBody(node *goquery.Selection, remove []string) string {
	clone := node.Clone()
	for _, css := range defaultRemove {
		clone.Find(css).Remove()
	}
	for _, css := range remove {
		clone.Find(css).Remove()
	}
	if strings.TrimSpace(clone.Text()) == "" {
		return ""
	}
	html, err := clone.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

// ExtractImage prefers social preview metadata over in-body images.
func ExtractImage(doc *goquery.Document, bodyImage []string, base *url.URL) string {
	if img := Extract(doc.Selection, imageMeta); img != "" {
		return resolveURL(base, img)
	}
	for _, entry := range bodyImage {
		css, attr := splitSelector(entry)
		node := pick(doc.Selection, css)
		if node.Length() == 0 {
			continue
		}
		// Lazy loaders park the real source in data-src.
		candidates := []string{"data-src", "data-original", "src"}
		if attr != "" {
			candidates = []string{attr}
		}
		for _, a := range candidates {
			if v, ok := node.Attr(a); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
				return resolveURL(base, strings.TrimSpace(v))
			}
		}
	}
	return ""
}

// readabilityBody runs the generic article extractor over the full page.
func readabilityBody(html string, pageURL *url.URL) string {
	if strings.TrimSpace(html) == "" || pageURL == nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return ""
	}
	return strings.TrimSpace(article.Content)
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if !ref.IsAbs() {
			return ""
		}
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
