package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
)

// Service hands out profile snapshots and applies the only mutation a
// profile has: recording a read.
type Service struct {
	store    Store
	defaults models.UserProfile
	logger   *logging.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewService creates a profile service. defaults is copied and used for
// readers the store does not know yet.
func NewService(store Store, defaults models.UserProfile, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:    store,
		defaults: defaults.Clone(),
		logger:   logger,
		now:      time.Now,
	}
}

// Default returns a copy of the injected default profile.
func (s *Service) Default() models.UserProfile {
	return s.defaults.Clone()
}

// Get returns the reader's stored profile, or a copy of the default when
// none exists. On a store failure it returns the default along with the error.
func (s *Service) Get(ctx context.Context, readerID string) (models.UserProfile, error) {
	p, err := s.store.Load(ctx, readerID)
	if errors.Is(err, ErrNotFound) {
		return s.defaults.Clone(), nil
	}
	if err != nil {
		return s.defaults.Clone(), fmt.Errorf("get profile: %w", err)
	}
	return p.Clone(), nil
}

// RecordRead appends an entry to the reader's history, keeping the most
// recent models.MaxReadingHistory entries, and returns the updated profile.
func (s *Service) RecordRead(ctx context.Context, readerID string, entry models.ReadingEntry) (models.UserProfile, error) {
	if strings.TrimSpace(entry.ArticleID) == "" {
		return models.UserProfile{}, fmt.Errorf("article id is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, readerID)
	if err != nil {
		return models.UserProfile{}, err
	}

	p.RecordRead(entry)
	if err := s.store.Save(ctx, readerID, &p); err != nil {
		return models.UserProfile{}, fmt.Errorf("record read: %w", err)
	}

	s.logger.Debug("Recorded article read", logging.WithFields(map[string]interface{}{
		"reader_id":  readerID,
		"article_id": entry.ArticleID,
		"history":    len(p.ReadingHistory),
	}))
	return p.Clone(), nil
}
