package models

import (
	"slices"
	"time"
)

// MaxReadingHistory is how many reads a profile keeps.
const MaxReadingHistory = 20

// ReadingEntry records one article the reader opened.
type ReadingEntry struct {
	ArticleID string    `json:"articleId"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Location is the reader's approximate position.
type Location struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Region string  `json:"region,omitempty"`
}

// UserProfile drives feed personalization.
type UserProfile struct {
	Name               string         `json:"name"`
	Interests          []Category     `json:"interests"`
	PreferredLanguages []string       `json:"preferredLanguages"`
	ReadingHistory     []ReadingEntry `json:"readingHistory"`
	Location           *Location      `json:"location,omitempty"`
}

// DefaultProfile is the profile a reader starts with.
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:               "Rohan Sharma",
		Interests:          []Category{CategoryTechnology, CategoryFinance, CategoryPolitics},
		PreferredLanguages: []string{"English", "Hindi"},
		ReadingHistory:     []ReadingEntry{},
		Location: &Location{
			Lat:    28.6139,
			Lng:    77.2090,
			Region: "Delhi NCR",
		},
	}
}

// RecordRead appends an entry, keeping only the most recent MaxReadingHistory.
func (p *UserProfile) RecordRead(entry ReadingEntry) {
	p.ReadingHistory = append(p.ReadingHistory, entry)
	if over := len(p.ReadingHistory) - MaxReadingHistory; over > 0 {
		trimmed := make([]ReadingEntry, MaxReadingHistory)
		copy(trimmed, p.ReadingHistory[over:])
		p.ReadingHistory = trimmed
	}
}

// RecentTitles returns up to n titles from the end of the history, oldest first.
func (p *UserProfile) RecentTitles(n int) []string {
	start := len(p.ReadingHistory) - n
	if start < 0 {
		start = 0
	}
	titles := make([]string, 0, len(p.ReadingHistory)-start)
	for _, e := range p.ReadingHistory[start:] {
		titles = append(titles, e.Title)
	}
	return titles
}

// Clone returns a deep copy so callers can hand out read-only snapshots.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.Interests = slices.Clone(p.Interests)
	out.PreferredLanguages = slices.Clone(p.PreferredLanguages)
	out.ReadingHistory = slices.Clone(p.ReadingHistory)
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	return out
}
