package sources

import (
	"testing"
	"time"

	"github.com/vnknews/vnknews/internal/models"
)

func TestNormalize_Fallbacks(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	item := Normalize(RawItem{
		Title: "  Hà Nội   mở rộng\n đường vành đai ",
		URL:   "https://VnExpress.net/ha-noi-mo-rong-4700000.html?utm_source=fb#comments",
	}, "vnexpress", now)

	if item.Title != "Hà Nội mở rộng đường vành đai" {
		t.Errorf("unexpected title %q", item.Title)
	}
	if item.Summary != item.Title {
		t.Errorf("expected summary to default to title, got %q", item.Summary)
	}
	if models.StringValue(item.Content) != item.Summary {
		t.Errorf("expected content to default to summary, got %v", item.Content)
	}
	if item.ContentFromDetail {
		t.Error("summary fallback must not be marked as article content")
	}
	if item.ImageURL != nil {
		t.Errorf("expected nil image, got %q", *item.ImageURL)
	}
	if item.OriginalURL != "https://vnexpress.net/ha-noi-mo-rong-4700000.html" {
		t.Errorf("unexpected original url %q", item.OriginalURL)
	}
	if item.Status != models.NewsStatusDraft {
		t.Errorf("expected DRAFT, got %s", item.Status)
	}
	if item.TranslationStatus != models.TranslationStatusPending {
		t.Errorf("expected PENDING, got %s", item.TranslationStatus)
	}
	if item.Category != models.CategorySociety {
		t.Errorf("expected default category, got %s", item.Category)
	}
	if !item.PublishedAt.Equal(now) {
		t.Errorf("expected publishedAt=%v, got %v", now, item.PublishedAt)
	}
	if item.Source != "vnexpress" {
		t.Errorf("unexpected source %q", item.Source)
	}
}

func TestNormalize_ComposesDecomposedVietnamese(t *testing.T) {
	// "Việt" written with combining marks.
	decomposed := "Vie\u0323\u0302t Nam"
	item := Normalize(RawItem{Title: decomposed, URL: "https://a.vn/x"}, "a", time.Now())

	if item.Title != "Vi\u1ec7t Nam" {
		t.Errorf("expected NFC title, got %q", item.Title)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"lowercase host", "https://TuoiTre.VN/a.htm", "https://tuoitre.vn/a.htm"},
		{"strip fragment", "https://a.vn/x.html#top", "https://a.vn/x.html"},
		{"strip tracking", "https://a.vn/x?utm_source=fb&fbclid=1&id=5", "https://a.vn/x?id=5"},
		{"trailing slash", "https://www.sggp.org.vn/xahoi/", "https://www.sggp.org.vn/xahoi"},
		{"root kept", "https://a.vn/", "https://a.vn/"},
		{"default port", "https://a.vn:443/x", "https://a.vn/x"},
		{"relative rejected", "/x.html", ""},
		{"garbage", "::", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.raw); got != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	cfg := SiteConfig{
		DefaultCategory: models.CategoryInternational,
		CategoryRules:   vietnameseSections,
	}

	tests := []struct {
		name     string
		url      string
		listing  string
		hint     string
		expected models.Category
	}{
		{"url rule", "https://vnexpress.net/kinh-doanh/x-1.html", "", "", models.CategoryEconomy},
		{"korea rule wins", "https://vnexpress.net/the-gioi/han-quoc-x-1.html", "", "", models.CategoryKoreaVietnam},
		{"article rule beats listing", "https://a.vn/du-lich/x.html", "https://a.vn/the-gioi", "", models.CategoryTravel},
		{"listing rule", "https://vnexpress.net/x-1.html", "https://vnexpress.net/kinh-doanh", "", models.CategoryEconomy},
		{"listing rule beats hint", "https://a.vn/x.html", "https://a.vn/the-thao", "Văn hóa", models.CategorySports},
		{"hint", "https://a.vn/x.html", "https://a.vn/moi-nhat", "Thể thao", models.CategorySports},
		{"default", "https://a.vn/x.html", "", "", models.CategoryInternational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(cfg, tt.url, tt.listing, tt.hint); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}
