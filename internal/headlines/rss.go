package headlines

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/johnrirwin/smartnews/internal/metrics"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/ratelimit"
)

type RSSFetcher struct {
	name    string
	url     string
	region  models.Region
	parser  *gofeed.Parser
	limiter *ratelimit.Limiter
	config  FetcherConfig
	now     func() time.Time
}

func NewRSSFetcher(name, url string, region models.Region, limiter *ratelimit.Limiter, config FetcherConfig) *RSSFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent

	return &RSSFetcher{
		name:    name,
		url:     url,
		region:  region,
		parser:  parser,
		limiter: limiter,
		config:  config,
		now:     time.Now,
	}
}

func (f *RSSFetcher) Name() string {
	return f.name
}

func (f *RSSFetcher) SourceInfo() models.SourceInfo {
	return models.SourceInfo{
		ID:      strings.ToLower(strings.ReplaceAll(f.name, " ", "-")),
		Name:    f.name,
		URL:     f.url,
		Region:  f.region,
		Enabled: true,
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]models.Headline, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, f.url); err != nil {
			return nil, err
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(f.url, ctxWithTimeout)
	if err != nil {
		metrics.RecordHeadlineFetch(f.name, "error")
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", f.url, err)
	}
	metrics.RecordHeadlineFetch(f.name, "success")

	items := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		if f.config.MaxItems > 0 && len(items) >= f.config.MaxItems {
			break
		}

		title := CleanText(item.Title)
		if title == "" {
			continue
		}

		publishedAt := f.now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		items = append(items, models.Headline{
			ID:          generateID(f.name, item.Link),
			Title:       title,
			Summary:     Truncate(CleanText(item.Description), maxSummaryRunes),
			URL:         item.Link,
			Source:      f.name,
			Region:      f.region,
			Category:    models.CategoryGeneral,
			PublishedAt: publishedAt,
		})
	}

	return items, nil
}

func generateID(source, url string) string {
	hash := sha256.Sum256([]byte(source + url))
	return fmt.Sprintf("%x", hash[:8])
}
