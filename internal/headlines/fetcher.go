// Package headlines pulls current wire headlines from RSS feeds. The feed
// prompt uses them as a light freshness signal.
package headlines

import (
	"context"
	"time"

	"github.com/johnrirwin/smartnews/internal/models"
)

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Headline, error)
	SourceInfo() models.SourceInfo
}

type FetchResult struct {
	Items  []models.Headline
	Source models.SourceInfo
	Error  error
}

type FetcherConfig struct {
	Timeout   time.Duration
	MaxItems  int
	UserAgent string
}

func DefaultConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:   20 * time.Second,
		MaxItems:  25,
		UserAgent: "SmartNewsHeadlines/1.0",
	}
}
