package headlines

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johnrirwin/smartnews/internal/cache"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/tagging"
)

const (
	snapshotCacheKey = "headlines"
	snapshotCacheTTL = 6 * time.Hour
	maxConcurrent    = 4
)

// Aggregator fans out to every fetcher and keeps the merged snapshot.
type Aggregator struct {
	fetchers []Fetcher
	cache    cache.Cache
	tagger   *tagging.Tagger
	logger   *logging.Logger

	mu        sync.RWMutex
	items     []models.Headline
	refreshed time.Time
}

func New(fetchers []Fetcher, c cache.Cache, tagger *tagging.Tagger, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Aggregator{
		fetchers: fetchers,
		cache:    c,
		tagger:   tagger,
		logger:   logger,
		items:    make([]models.Headline, 0),
	}
}

// Refresh fetches every source concurrently. A failing source is logged and
// skipped; the snapshot is replaced only when at least one source answered.
func (a *Aggregator) Refresh(ctx context.Context) error {
	results := make([]FetchResult, len(a.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, fetcher := range a.fetchers {
		g.Go(func() error {
			items, err := fetcher.Fetch(gctx)
			results[i] = FetchResult{Items: items, Source: fetcher.SourceInfo(), Error: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	all := make([]models.Headline, 0)
	answered := 0
	for _, result := range results {
		if result.Error != nil {
			a.logger.Warn("Failed to fetch headlines", logging.WithFields(map[string]interface{}{
				"source": result.Source.Name,
				"error":  result.Error.Error(),
			}))
			continue
		}
		answered++

		for i := range result.Items {
			if a.tagger != nil {
				result.Items[i].Category = a.tagger.InferCategory(result.Items[i].Title, result.Items[i].Summary)
			}
		}
		all = append(all, result.Items...)
	}

	if answered == 0 && len(a.fetchers) > 0 {
		a.logger.Warn("No headline source answered, keeping previous snapshot")
		return nil
	}

	items := deduplicate(all)
	sortByDate(items)

	a.mu.Lock()
	a.items = items
	a.refreshed = time.Now()
	a.mu.Unlock()

	if a.cache != nil {
		a.cache.SetWithTTL(snapshotCacheKey, items, snapshotCacheTTL)
	}

	a.logger.Info("Headline refresh complete", logging.WithFields(map[string]interface{}{
		"total_items":  len(items),
		"sources_used": answered,
	}))
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) {
	if err := a.Refresh(ctx); err != nil {
		a.logger.Warn("Headline refresh failed", logging.WithField("error", err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("Headline refresh failed", logging.WithField("error", err))
			}
		}
	}
}

// Headlines returns up to limit items, newest first, optionally narrowed to
// one region. A zero limit returns everything.
func (a *Aggregator) Headlines(region models.Region, limit int) []models.Headline {
	items := a.snapshot()

	out := make([]models.Headline, 0, len(items))
	for _, h := range items {
		if region != "" && h.Region != region {
			continue
		}
		out = append(out, h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Titles returns the newest n headline titles. It never does network I/O.
func (a *Aggregator) Titles(n int) []string {
	items := a.Headlines("", n)
	titles := make([]string, 0, len(items))
	for _, h := range items {
		titles = append(titles, h.Title)
	}
	return titles
}

// Sources lists the configured feeds.
func (a *Aggregator) Sources() []models.SourceInfo {
	info := make([]models.SourceInfo, 0, len(a.fetchers))
	for _, f := range a.fetchers {
		info = append(info, f.SourceInfo())
	}
	return info
}

// snapshot returns the in-memory items, warming them from the cache after a
// restart.
func (a *Aggregator) snapshot() []models.Headline {
	a.mu.RLock()
	items := a.items
	a.mu.RUnlock()
	if len(items) > 0 {
		return items
	}

	var cached []models.Headline
	if !cache.Decode(a.cache, snapshotCacheKey, &cached) || len(cached) == 0 {
		return items
	}

	a.mu.Lock()
	if len(a.items) == 0 {
		a.items = cached
	}
	items = a.items
	a.mu.Unlock()
	return items
}

func deduplicate(items []models.Headline) []models.Headline {
	seen := make(map[string]bool)
	titleSeen := make(map[string]bool)
	result := make([]models.Headline, 0, len(items))

	for _, item := range items {
		if seen[item.ID] {
			continue
		}

		normalizedTitle := strings.ToLower(strings.TrimSpace(item.Title))
		if titleSeen[normalizedTitle] {
			continue
		}

		seen[item.ID] = true
		titleSeen[normalizedTitle] = true
		result = append(result, item)
	}

	return result
}

func sortByDate(items []models.Headline) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
