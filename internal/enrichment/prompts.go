package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vnknews/vnknews/internal/models"
)

// ErrMissingKeys marks a response that parsed as JSON but lacked required fields.
var ErrMissingKeys = errors.New("response missing required keys")

// maxContentRunes bounds the article body sent in full mode.
const maxContentRunes = 12000

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*({.+})\\s*```")
	bareJSON   = regexp.MustCompile("(?s)({.+})")
)

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func titleSystemPrompt() string {
	return `You translate Vietnamese and English news headlines into natural Korean for a Korean-language news site about Vietnam.
Keep proper nouns accurate, use standard Korean transliterations for Vietnamese place and person names, and keep the headline concise.
Classify the article into exactly one category from this list: ` + categoryList() + `.
Respond with a JSON object only: {"translatedTitle": "...", "category": "..."}`
}

func fullSystemPrompt() string {
	return `You translate Vietnamese and English news articles into natural Korean for a Korean-language news site about Vietnam.
Translate the title, the summary and the body. The body may contain HTML: keep the tags and translate only the text.
Respond with a JSON object only: {"translatedTitle": "...", "translatedSummary": "...", "translatedContent": "..."}`
}

// BuildTitlePrompt renders the user message for title mode.
func BuildTitlePrompt(item models.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", item.Source)
	fmt.Fprintf(&b, "Current category: %s\n", item.Category)
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	if item.Summary != "" && item.Summary != item.Title {
		fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	}
	return b.String()
}

// BuildFullPrompt renders the user message for full-article mode.
func BuildFullPrompt(item models.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", item.Source)
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	fmt.Fprintf(&b, "Content:\n%s\n", truncateRunes(models.StringValue(item.Content), maxContentRunes))
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

type titleResponse struct {
	TranslatedTitle string `json:"translatedTitle"`
	Category        string `json:"category"`
}

type fullResponse struct {
	TranslatedTitle   string `json:"translatedTitle"`
	TranslatedSummary string `json:"translatedSummary"`
	TranslatedContent string `json:"translatedContent"`
}

// extractJSON pulls the JSON object out of a response that may be wrapped in
// a markdown fence or surrounded by prose.
func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); len(m) > 1 {
		return m[1]
	}
	if m := bareJSON.FindStringSubmatch(raw); len(m) > 1 {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

// ParseTitleResponse decodes a title-mode response. Both keys are required.
func ParseTitleResponse(raw string) (string, string, error) {
	var resp titleResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return "", "", fmt.Errorf("parse title response: %w (raw: %.200s)", err, raw)
	}

	var missing []string
	if strings.TrimSpace(resp.TranslatedTitle) == "" {
		missing = append(missing, "translatedTitle")
	}
	if strings.TrimSpace(resp.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return strings.TrimSpace(resp.TranslatedTitle), strings.TrimSpace(resp.Category), nil
}

// ParseFullResponse decodes a full-mode response. All three keys are required.
func ParseFullResponse(raw string) (title, summary, content string, err error) {
	var resp fullResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return "", "", "", fmt.Errorf("parse full response: %w (raw: %.200s)", err, raw)
	}

	var missing []string
	if strings.TrimSpace(resp.TranslatedTitle) == "" {
		missing = append(missing, "translatedTitle")
	}
	if strings.TrimSpace(resp.TranslatedSummary) == "" {
		missing = append(missing, "translatedSummary")
	}
	if strings.TrimSpace(resp.TranslatedContent) == "" {
		missing = append(missing, "translatedContent")
	}
	if len(missing) > 0 {
		return "", "", "", fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return strings.TrimSpace(resp.TranslatedTitle),
		strings.TrimSpace(resp.TranslatedSummary),
		strings.TrimSpace(resp.TranslatedContent),
		nil
}
