package tagging

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/johnrirwin/smartnews/internal/models"
)

// Tagger infers news categories from article text using keyword rules.
type Tagger struct {
	mu    sync.RWMutex
	rules map[string][]string
}

// New creates a tagger with the default category rules.
func New() *Tagger {
	return &Tagger{rules: defaultRules()}
}

func defaultRules() map[string][]string {
	return map[string][]string{
		string(models.CategoryPolitics): {
			"election", "parliament", "lok sabha", "rajya sabha", "minister", "cabinet",
			"bjp", "congress", "opposition", "policy", "bill", "government", "vote",
			"supreme court", "diplomacy", "summit",
		},
		string(models.CategoryTechnology): {
			"ai", "artificial intelligence", "startup", "software", "smartphone", "chip",
			"semiconductor", "isro", "satellite", "cyber", "internet", "5g", "app",
			"robotics", "digital",
		},
		string(models.CategorySports): {
			"cricket", "ipl", "bcci", "football", "hockey", "olympics", "tournament",
			"match", "wicket", "world cup", "medal", "tennis", "badminton", "kabaddi",
		},
		string(models.CategoryEntertainment): {
			"bollywood", "film", "movie", "box office", "actor", "actress", "music",
			"album", "ott", "netflix", "series", "celebrity", "festival",
		},
		string(models.CategoryHealth): {
			"health", "hospital", "vaccine", "disease", "covid", "virus", "doctor",
			"medicine", "who", "outbreak", "wellness", "nutrition", "ayush",
		},
		string(models.CategoryFinance): {
			"sensex", "nifty", "rbi", "rupee", "inflation", "gdp", "budget", "market",
			"stock", "bank", "tax", "gst", "economy", "investment", "ipo",
		},
		string(models.CategoryEnvironment): {
			"climate", "monsoon", "pollution", "aqi", "flood", "cyclone", "heatwave",
			"wildlife", "forest", "emission", "renewable", "solar", "drought",
		},
	}
}

// InferTags returns every rule name with at least one keyword in the text.
// The result is never nil.
func (t *Tagger) InferTags(title, content string) []string {
	text := normalize(title + " " + content)
	tags := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return tags
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for tag, keywords := range t.rules {
		for _, kw := range keywords {
			if containsWord(text, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// InferCategory returns the category whose rule has the most keyword hits,
// or General when nothing matches. Ties go to the earlier category in
// models.AllCategories.
func (t *Tagger) InferCategory(title, summary string) models.Category {
	text := normalize(title + " " + summary)

	t.mu.RLock()
	defer t.mu.RUnlock()

	best := models.CategoryGeneral
	bestHits := 0
	for _, c := range models.AllCategories() {
		hits := 0
		for _, kw := range t.rules[string(c)] {
			if containsWord(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = c, hits
		}
	}
	return best
}

// AddRule adds or replaces a rule.
func (t *Tagger) AddRule(tag string, keywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[tag] = keywords
}

// RemoveRule deletes a rule.
func (t *Tagger) RemoveRule(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rules, tag)
}

// GetRules returns a copy of the rules.
func (t *Tagger) GetRules() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string][]string, len(t.rules))
	for tag, keywords := range t.rules {
		out[tag] = append([]string(nil), keywords...)
	}
	return out
}

// normalize lowercases text and replaces anything that is not a letter or
// digit with a single space, padded on both ends.
func normalize(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

func containsWord(text, keyword string) bool {
	kw := strings.TrimSpace(normalize(keyword))
	if kw == "" {
		return false
	}
	return strings.Contains(text, " "+kw+" ")
}
