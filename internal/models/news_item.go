package models

import (
	"strings"
	"time"
)

// NewsItem represents one article discovered from exactly one news site.
type NewsItem struct {
	ID          string   `json:"id"`
	OriginalURL string   `json:"original_url"` // Natural dedup key, unique across the table
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Content     *string  `json:"content,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Source      string   `json:"source"` // Adapter ID, e.g. "vnexpress"
	Category    Category `json:"category"`

	// ContentFromDetail is set by the crawler when Content and ImageURL were
	// read from the article page rather than the listing. Not persisted.
	ContentFromDetail bool `json:"-"`

	TranslatedTitle   *string           `json:"translated_title,omitempty"`
	TranslatedSummary *string           `json:"translated_summary,omitempty"`
	TranslatedContent *string           `json:"translated_content,omitempty"`
	TranslationStatus TranslationStatus `json:"translation_status"`

	// Curation and publishing state. The crawl pipeline never writes these after insert.
	Status           NewsStatus `json:"status"`
	IsSelected       bool       `json:"is_selected"`
	IsTopNews        bool       `json:"is_top_news"`
	IsCardNews       bool       `json:"is_card_news"`
	IsPublishedMain  bool       `json:"is_published_main"`
	IsPublishedDaily bool       `json:"is_published_daily"`
	IsSentSNS        bool       `json:"is_sent_sns"`

	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewsStatus is the publishing workflow state of an item.
type NewsStatus string

const (
	NewsStatusDraft     NewsStatus = "DRAFT"
	NewsStatusPublished NewsStatus = "PUBLISHED"
	NewsStatusArchived  NewsStatus = "ARCHIVED"
)

// TranslationStatus tracks the curation state of an item's translation.
// It is independent of whether translated text exists.
type TranslationStatus string

const (
	TranslationStatusPending   TranslationStatus = "PENDING"
	TranslationStatusDraft     TranslationStatus = "DRAFT"
	TranslationStatusCompleted TranslationStatus = "COMPLETED"
	TranslationStatusSkipped   TranslationStatus = "SKIPPED"
)

// Category is one of the fixed sections news items are filed under.
type Category string

const (
	CategorySociety       Category = "Society"
	CategoryEconomy       Category = "Economy"
	CategoryCulture       Category = "Culture"
	CategoryPolitics      Category = "Politics"
	CategoryInternational Category = "International"
	CategoryKoreaVietnam  Category = "Korea-Vietnam"
	CategoryTravel        Category = "Travel"
	CategoryHealth        Category = "Health"
	CategorySports        Category = "Sports"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategorySociety,
	CategoryEconomy,
	CategoryCulture,
	CategoryPolitics,
	CategoryInternational,
	CategoryKoreaVietnam,
	CategoryTravel,
	CategoryHealth,
	CategorySports,
}

// categoryAliases maps lowercase spellings (English, Korean, Vietnamese) onto categories.
var categoryAliases = map[string]Category{
	"society":       CategorySociety,
	"사회":            CategorySociety,
	"xã hội":        CategorySociety,
	"economy":       CategoryEconomy,
	"business":      CategoryEconomy,
	"경제":            CategoryEconomy,
	"kinh tế":       CategoryEconomy,
	"culture":       CategoryCulture,
	"entertainment": CategoryCulture,
	"문화":            CategoryCulture,
	"văn hóa":       CategoryCulture,
	"politics":      CategoryPolitics,
	"policy":        CategoryPolitics,
	"정치":            CategoryPolitics,
	"chính trị":     CategoryPolitics,
	"international": CategoryInternational,
	"world":         CategoryInternational,
	"국제":            CategoryInternational,
	"thế giới":      CategoryInternational,
	"korea-vietnam": CategoryKoreaVietnam,
	"korea":         CategoryKoreaVietnam,
	"한베":            CategoryKoreaVietnam,
	"한-베":           CategoryKoreaVietnam,
	"travel":        CategoryTravel,
	"tourism":       CategoryTravel,
	"여행":            CategoryTravel,
	"du lịch":       CategoryTravel,
	"health":        CategoryHealth,
	"건강":            CategoryHealth,
	"sức khỏe":      CategoryHealth,
	"sports":        CategorySports,
	"sport":         CategorySports,
	"스포츠":           CategorySports,
	"thể thao":      CategorySports,
}

// ParseCategory maps free text onto the fixed category set.
func ParseCategory(raw string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	for _, c := range Categories {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// HasTranslation returns true once a translated title has been stored.
func (n *NewsItem) HasTranslation() bool {
	return n.TranslatedTitle != nil && strings.TrimSpace(*n.TranslatedTitle) != ""
}

// DisplayTitle prefers the translated title when one exists.
func (n *NewsItem) DisplayTitle() string {
	if n.HasTranslation() {
		return *n.TranslatedTitle
	}
	return n.Title
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// NewsItemUpdate carries the crawl-owned fields a refresh may overwrite.
// Nil fields are left unchanged.
type NewsItemUpdate struct {
	Summary  *string
	Content  *string
	ImageURL *string
}

// IsEmpty reports whether the update would change nothing.
func (u NewsItemUpdate) IsEmpty() bool {
	return u.Summary == nil && u.Content == nil && u.ImageURL == nil
}

// TranslationUpdate carries enrichment output. Nil fields are left unchanged.
type TranslationUpdate struct {
	TranslatedTitle   *string
	TranslatedSummary *string
	TranslatedContent *string
	Category          *Category
}

// IsEmpty reports whether the update would change nothing.
func (u TranslationUpdate) IsEmpty() bool {
	return u.TranslatedTitle == nil && u.TranslatedSummary == nil && u.TranslatedContent == nil && u.Category == nil
}
