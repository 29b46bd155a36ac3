package models

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Category is the fixed news taxonomy shown in the feed.
type Category string

const (
	CategoryGeneral       Category = "General"
	CategoryPolitics      Category = "Politics"
	CategoryTechnology    Category = "Technology"
	CategorySports        Category = "Sports"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryFinance       Category = "Finance"
	CategoryEnvironment   Category = "Environment"
)

// AllCategories returns every valid category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryPolitics,
		CategoryTechnology,
		CategorySports,
		CategoryEntertainment,
		CategoryHealth,
		CategoryFinance,
		CategoryEnvironment,
	}
}

// ParseCategory matches s against the taxonomy, ignoring case, accents and
// surrounding punctuation. The second return is false when s is not a member.
func ParseCategory(s string) (Category, bool) {
	key := normalizeCategory(s)
	if key == "" {
		return CategoryGeneral, false
	}
	for _, c := range AllCategories() {
		if normalizeCategory(string(c)) == key {
			return c, true
		}
	}
	return CategoryGeneral, false
}

var nonLetterRegex = regexp.MustCompile(`[^\p{L}\p{N}]`)

func normalizeCategory(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = removeDiacritics(s)
	s = nonLetterRegex.ReplaceAllString(s, "")
	return s
}

func removeDiacritics(s string) string {
	t := norm.NFD.String(s)
	var result strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// FactCheckStatus is the verification outcome attached to an article.
type FactCheckStatus string

const (
	FactCheckUnverified FactCheckStatus = "unverified"
	FactCheckVerified   FactCheckStatus = "verified"
	FactCheckSuspicious FactCheckStatus = "suspicious"
	FactCheckDebunked   FactCheckStatus = "debunked"
)

// IsDefinite reports whether the status is one a successful check can return.
func (s FactCheckStatus) IsDefinite() bool {
	switch s {
	case FactCheckVerified, FactCheckSuspicious, FactCheckDebunked:
		return true
	}
	return false
}

// ParseFactCheckStatus reads a verdict returned by a check. Case and
// surrounding space are ignored; only the three definite statuses are
// accepted.
func ParseFactCheckStatus(s string) (FactCheckStatus, bool) {
	status := FactCheckStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsDefinite() {
		return FactCheckUnverified, false
	}
	return status, true
}

// Article is one normalized news story.
type Article struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Summary          string          `json:"summary"`
	Source           string          `json:"source"`
	URL              string          `json:"url"`
	PublishedAt      time.Time       `json:"publishedAt"`
	Category         Category        `json:"category"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	IsIndian         bool            `json:"isIndian"`
	CredibilityScore int             `json:"credibilityScore"`
	SimilarityScore  int             `json:"similarityScore"`
	FactCheckStatus  FactCheckStatus `json:"factCheckStatus"`
}

// DisplayImage returns the article image, or the deterministic placeholder
// keyed by the article id when the producer gave none.
func (a *Article) DisplayImage() string {
	if strings.TrimSpace(a.ImageURL) != "" {
		return a.ImageURL
	}
	return PlaceholderImage(a.ID)
}

// PlaceholderImage is the fallback artwork URL for an article id.
func PlaceholderImage(id string) string {
	return "https://picsum.photos/seed/" + id + "/800/450"
}

// ClampScore bounds a producer score to [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
