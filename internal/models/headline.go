package models

import "time"

// Region tells Indian wire sources apart from international ones.
type Region string

const (
	RegionIndia  Region = "india"
	RegionGlobal Region = "global"
)

// Headline is one item pulled from a configured RSS feed.
type Headline struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Region      Region    `json:"region"`
	Category    Category  `json:"category"`
	PublishedAt time.Time `json:"publishedAt"`
}

// SourceInfo describes a configured headline feed.
type SourceInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Region  Region `json:"region"`
	Enabled bool   `json:"enabled"`
}
