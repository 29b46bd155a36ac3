package feed

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/smartnews/internal/cache"
	"github.com/johnrirwin/smartnews/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mem := cache.NewMemory(time.Minute)
	t.Cleanup(mem.Stop)
	return NewStore(mem, 0)
}

func sampleBatch() Result {
	return Result{
		Status:    models.FeedLoaded,
		FetchedAt: fixedNow,
		Articles: []models.Article{
			{ID: "news-1-0", Title: "A", Category: models.CategoryPolitics, IsIndian: true, CredibilityScore: 90, FactCheckStatus: models.FactCheckUnverified},
			{ID: "news-1-1", Title: "B", Category: models.CategoryFinance, IsIndian: false, CredibilityScore: 40, FactCheckStatus: models.FactCheckVerified},
			{ID: "news-1-2", Title: "C", Category: models.CategoryPolitics, IsIndian: true, CredibilityScore: 20, FactCheckStatus: models.FactCheckUnverified},
		},
	}
}

func ids(articles []models.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ID)
	}
	return out
}

func TestStore_Filter(t *testing.T) {
	store := newTestStore(t)
	store.Put("r", sampleBatch())

	tests := []struct {
		filter models.FeedFilter
		want   []string
	}{
		{models.FilterLatest, []string{"news-1-0", "news-1-1", "news-1-2"}},
		{models.FilterIndian, []string{"news-1-0", "news-1-2"}},
		{models.FilterInternational, []string{"news-1-1"}},
		{models.FilterVerified, []string{"news-1-1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			resp, ok := store.Filter("r", tt.filter)
			require.True(t, ok)
			assert.Equal(t, tt.want, ids(resp.Articles))
			assert.Equal(t, len(tt.want), resp.TotalCount)
			assert.Equal(t, models.FeedLoaded, resp.Status)
		})
	}
}

func TestStore_FilterUnknownReader(t *testing.T) {
	store := newTestStore(t)

	resp, ok := store.Filter("nobody", models.FilterLatest)

	assert.False(t, ok)
	assert.NotNil(t, resp.Articles)
	assert.Empty(t, resp.Articles)
}

func TestStore_Insights(t *testing.T) {
	store := newTestStore(t)
	store.Put("r", sampleBatch())

	ins := store.Insights("r")

	assert.Equal(t, 3, ins.TotalArticles)
	assert.Equal(t, 2, ins.IndianCount)
	assert.Equal(t, 1, ins.GlobalCount)
	assert.Equal(t, []string{"news-1-1", "news-1-2"}, ins.LowCredibilityIDs)
	require.NotEmpty(t, ins.Categories)
	assert.Equal(t, models.CategoryPolitics, ins.Categories[0].Category)

	empty := store.Insights("nobody")
	assert.Equal(t, 0, empty.TotalArticles)
}

func TestStore_MarkVerified(t *testing.T) {
	store := newTestStore(t)
	store.Put("r", sampleBatch())

	assert.True(t, store.MarkVerified("r", "news-1-2", models.FactCheckDebunked))
	assert.False(t, store.MarkVerified("r", "missing", models.FactCheckVerified))
	assert.False(t, store.MarkVerified("nobody", "news-1-0", models.FactCheckVerified))

	a, ok := store.Article("r", "news-1-2")
	require.True(t, ok)
	assert.Equal(t, models.FactCheckDebunked, a.FactCheckStatus)

	other, ok := store.Article("r", "news-1-0")
	require.True(t, ok)
	assert.Equal(t, models.FactCheckUnverified, other.FactCheckStatus)
}

func TestStore_ReadersAreIsolated(t *testing.T) {
	store := newTestStore(t)
	store.Put("a", sampleBatch())
	store.Put("b", Result{Status: models.FeedEmpty})

	snapA, ok := store.Get("a")
	require.True(t, ok)
	assert.Len(t, snapA.Articles, 3)

	snapB, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, models.FeedEmpty, snapB.Status)
	assert.NotNil(t, snapB.Articles)
	assert.Empty(t, snapB.Articles)
}

func TestStore_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc, err := cache.NewRedis(cache.RedisConfig{Addr: mr.Addr()}, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	store := NewStore(rc, 30*time.Second)
	store.Put("r", sampleBatch())

	snap, ok := store.Get("r")
	require.True(t, ok)
	assert.Equal(t, ids(sampleBatch().Articles), ids(snap.Articles))
	assert.True(t, snap.FetchedAt.Equal(fixedNow))

	require.True(t, store.MarkVerified("r", "news-1-0", models.FactCheckVerified))
	resp, ok := store.Filter("r", models.FilterVerified)
	require.True(t, ok)
	assert.Equal(t, []string{"news-1-0", "news-1-1"}, ids(resp.Articles))

	mr.FastForward(time.Minute)
	_, ok = store.Get("r")
	assert.False(t, ok)
}
