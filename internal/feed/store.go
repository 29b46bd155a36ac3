package feed

import (
	"sync"
	"time"

	"github.com/johnrirwin/smartnews/internal/cache"
	"github.com/johnrirwin/smartnews/internal/models"
)

const snapshotPrefix = "feed:"

// Snapshot is the latest batch fetched for one reader.
type Snapshot struct {
	Status    models.FeedStatus `json:"status"`
	Articles  []models.Article  `json:"articles"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// Store keeps one snapshot per reader in a cache. Every fetch replaces the
// previous snapshot; nothing is merged across fetches.
type Store struct {
	mu    sync.Mutex
	cache cache.Cache
	ttl   time.Duration
}

// NewStore creates a snapshot store. A zero ttl uses the cache default.
func NewStore(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Put replaces the reader's snapshot.
func (st *Store) Put(readerID string, res Result) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.put(readerID, Snapshot{Status: res.Status, Articles: res.Articles, FetchedAt: res.FetchedAt})
}

func (st *Store) put(readerID string, snap Snapshot) {
	if snap.Articles == nil {
		snap.Articles = []models.Article{}
	}
	if st.ttl > 0 {
		st.cache.SetWithTTL(snapshotPrefix+readerID, snap, st.ttl)
		return
	}
	st.cache.Set(snapshotPrefix+readerID, snap)
}

// Get returns the reader's snapshot.
func (st *Store) Get(readerID string) (Snapshot, bool) {
	var snap Snapshot
	if !cache.Decode(st.cache, snapshotPrefix+readerID, &snap) {
		return Snapshot{}, false
	}
	if snap.Articles == nil {
		snap.Articles = []models.Article{}
	}
	return snap, true
}

// Filter applies a feed chip to the reader's snapshot.
func (st *Store) Filter(readerID string, filter models.FeedFilter) (models.FeedResponse, bool) {
	snap, ok := st.Get(readerID)
	if !ok {
		return models.FeedResponse{Articles: []models.Article{}}, false
	}

	articles := filter.Apply(snap.Articles)
	return models.FeedResponse{
		Status:     snap.Status,
		Articles:   articles,
		TotalCount: len(articles),
		FetchedAt:  snap.FetchedAt,
	}, true
}

// Insights summarizes the reader's snapshot.
func (st *Store) Insights(readerID string) models.Insights {
	snap, _ := st.Get(readerID)
	return models.Summarize(snap.Articles)
}

// Article looks up one article in the reader's snapshot.
func (st *Store) Article(readerID, articleID string) (models.Article, bool) {
	snap, ok := st.Get(readerID)
	if !ok {
		return models.Article{}, false
	}
	for _, a := range snap.Articles {
		if a.ID == articleID {
			return a, true
		}
	}
	return models.Article{}, false
}

// MarkVerified records a verification status on the snapshot copy of one
// article. It reports whether the article was found.
func (st *Store) MarkVerified(readerID, articleID string, status models.FactCheckStatus) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap, ok := st.Get(readerID)
	if !ok {
		return false
	}
	for i := range snap.Articles {
		if snap.Articles[i].ID == articleID {
			snap.Articles[i].FactCheckStatus = status
			st.put(readerID, snap)
			return true
		}
	}
	return false
}
