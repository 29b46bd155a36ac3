package models

import (
	"sort"
	"strings"
	"time"
)

// FeedStatus tells the view how a feed fetch resolved.
type FeedStatus string

const (
	// FeedLoaded means the service returned at least one article.
	FeedLoaded FeedStatus = "loaded"
	// FeedEmpty means the service answered but found nothing.
	FeedEmpty FeedStatus = "empty"
	// FeedUnavailable means the fetch failed and the list is a fallback.
	FeedUnavailable FeedStatus = "unavailable"
)

// FeedFilter narrows a batch the way the feed's filter chips do.
type FeedFilter string

const (
	FilterLatest        FeedFilter = "latest"
	FilterIndian        FeedFilter = "indian"
	FilterInternational FeedFilter = "international"
	FilterVerified      FeedFilter = "verified"
)

// ParseFeedFilter accepts the chip label in any case; unknown values mean latest.
func ParseFeedFilter(s string) FeedFilter {
	switch FeedFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterIndian:
		return FilterIndian
	case FilterInternational:
		return FilterInternational
	case FilterVerified:
		return FilterVerified
	default:
		return FilterLatest
	}
}

// Apply returns the articles that pass the filter, in their original order.
func (f FeedFilter) Apply(articles []Article) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		switch f {
		case FilterIndian:
			if !a.IsIndian {
				continue
			}
		case FilterInternational:
			if a.IsIndian {
				continue
			}
		case FilterVerified:
			if a.FactCheckStatus != FactCheckVerified {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// FeedResponse is what the API returns for a feed request.
type FeedResponse struct {
	Status     FeedStatus `json:"status"`
	Articles   []Article  `json:"articles"`
	TotalCount int        `json:"totalCount"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}

// CategoryCount is one bar of the category chart.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Insights summarizes a feed batch for the dashboard.
type Insights struct {
	TotalArticles     int                     `json:"totalArticles"`
	Categories        []CategoryCount         `json:"categories"`
	FactCheck         map[FactCheckStatus]int `json:"factCheck"`
	IndianCount       int                     `json:"indianCount"`
	GlobalCount       int                     `json:"globalCount"`
	MeanCredibility   float64                 `json:"meanCredibility"`
	LowCredibilityIDs []string                `json:"lowCredibilityIds"`
}

// LowCredibilityThreshold marks articles the dashboard flags for review.
const LowCredibilityThreshold = 50

// Summarize builds Insights over a batch.
func Summarize(articles []Article) Insights {
	ins := Insights{
		TotalArticles:     len(articles),
		FactCheck:         make(map[FactCheckStatus]int),
		LowCredibilityIDs: []string{},
	}

	counts := make(map[Category]int)
	total := 0
	for _, a := range articles {
		counts[a.Category]++
		ins.FactCheck[a.FactCheckStatus]++
		if a.IsIndian {
			ins.IndianCount++
		} else {
			ins.GlobalCount++
		}
		total += a.CredibilityScore
		if a.CredibilityScore < LowCredibilityThreshold {
			ins.LowCredibilityIDs = append(ins.LowCredibilityIDs, a.ID)
		}
	}

	if len(articles) > 0 {
		ins.MeanCredibility = float64(total) / float64(len(articles))
	}

	ins.Categories = make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		ins.Categories = append(ins.Categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(ins.Categories, func(i, j int) bool {
		if ins.Categories[i].Count != ins.Categories[j].Count {
			return ins.Categories[i].Count > ins.Categories[j].Count
		}
		return ins.Categories[i].Category < ins.Categories[j].Category
	})

	return ins
}
