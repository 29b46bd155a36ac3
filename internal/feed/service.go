// Package feed builds the personalized news feed for a reader profile.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/metrics"
	"github.com/johnrirwin/smartnews/internal/models"
)

// HeadlineSource serves current wire headlines without network I/O.
type HeadlineSource interface {
	Titles(n int) []string
}

// CategoryInferer maps article text to a category.
type CategoryInferer interface {
	InferCategory(title, summary string) models.Category
}

// Result is the outcome of one feed fetch. Articles is never nil.
type Result struct {
	Status    models.FeedStatus
	Articles  []models.Article
	FetchedAt time.Time
	Err       error
}

// Option configures a Service.
type Option func(*Service)

// WithHeadlines adds wire headlines to the prompt.
func WithHeadlines(h HeadlineSource) Option {
	return func(s *Service) { s.headlines = h }
}

// WithTagger re-buckets unknown categories using keyword rules.
func WithTagger(t CategoryInferer) Option {
	return func(s *Service) { s.tagger = t }
}

// WithStore keeps a per-reader snapshot of each fetched batch.
func WithStore(st *Store) Option {
	return func(s *Service) { s.store = st }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service fetches and normalizes personalized feeds.
type Service struct {
	client    grounded.Client
	logger    *logging.Logger
	validate  *validator.Validate
	headlines HeadlineSource
	tagger    CategoryInferer
	store     *Store
	now       func() time.Time
}

// NewService creates a feed service.
func NewService(client grounded.Client, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		client:   client,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchFeed returns the personalized articles for profile, or an empty slice
// when the fetch failed.
func (s *Service) FetchFeed(ctx context.Context, profile models.UserProfile) []models.Article {
	return s.Fetch(ctx, profile).Articles
}

// Fetch runs one grounded query for profile and reports whether the batch
// loaded, came back empty, or is unavailable.
func (s *Service) Fetch(ctx context.Context, profile models.UserProfile) Result {
	var headlines []string
	if s.headlines != nil {
		headlines = s.headlines.Titles(headlineSignal)
	}

	result, err := s.client.Query(ctx, BuildPrompt(profile, headlines), grounded.Structured(Schema()))
	fetchedAt := s.now()
	if err != nil {
		return s.unavailable(fetchedAt, err)
	}

	items, err := decodeV1(result, s.validate)
	if err != nil {
		return s.unavailable(fetchedAt, err)
	}

	articles := s.normalize(items, fetchedAt)
	metrics.RecordFeed(len(articles))

	status := models.FeedLoaded
	if len(articles) == 0 {
		status = models.FeedEmpty
	}

	s.logger.Debug("Fetched personalized feed", logging.WithFields(map[string]interface{}{
		"count":     len(articles),
		"citations": len(result.Citations),
	}))

	return Result{Status: status, Articles: articles, FetchedAt: fetchedAt}
}

// Refresh fetches a new batch for a reader and replaces the stored snapshot.
func (s *Service) Refresh(ctx context.Context, readerID string, profile models.UserProfile) models.FeedResponse {
	res := s.Fetch(ctx, profile)
	if s.store != nil {
		s.store.Put(readerID, res)
	}
	return models.FeedResponse{
		Status:     res.Status,
		Articles:   res.Articles,
		TotalCount: len(res.Articles),
		FetchedAt:  res.FetchedAt,
	}
}

// Store returns the snapshot store, if one is configured.
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) unavailable(at time.Time, err error) Result {
	metrics.RecordFallback("feed")
	s.logger.Warn("Feed fetch failed, returning empty feed", logging.WithField("error", err))
	return Result{
		Status:    models.FeedUnavailable,
		Articles:  []models.Article{},
		FetchedAt: at,
		Err:       fmt.Errorf("fetch feed: %w", err),
	}
}

func (s *Service) normalize(items []articleV1, at time.Time) []models.Article {
	stamp := at.UnixMilli()
	articles := make([]models.Article, 0, len(items))
	for i, item := range items {
		a := models.Article{
			ID:               fmt.Sprintf("news-%d-%d", stamp, i),
			Title:            deref(item.Title),
			Summary:          deref(item.Summary),
			Source:           deref(item.Source),
			URL:              deref(item.URL),
			ImageURL:         deref(item.ImageURL),
			PublishedAt:      at,
			IsIndian:         *item.IsIndian,
			CredibilityScore: score(item.CredibilityScore),
			SimilarityScore:  score(item.SimilarityScore),
			FactCheckStatus:  models.FactCheckUnverified,
		}
		a.Category = s.category(deref(item.Category), a.Title, a.Summary)
		articles = append(articles, a)
	}
	return articles
}

func (s *Service) category(raw, title, summary string) models.Category {
	if c, ok := models.ParseCategory(raw); ok {
		return c
	}
	if s.tagger != nil {
		return s.tagger.InferCategory(title, summary)
	}
	return models.CategoryGeneral
}
