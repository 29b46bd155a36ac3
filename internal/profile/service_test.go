package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/smartnews/internal/models"
)

type failingStore struct {
	loadErr error
	saveErr error
}

func (f *failingStore) Load(ctx context.Context, readerID string) (*models.UserProfile, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, ErrNotFound
}

func (f *failingStore) Save(ctx context.Context, readerID string, profile *models.UserProfile) error {
	return f.saveErr
}

func entry(i int) models.ReadingEntry {
	return models.ReadingEntry{
		ArticleID: fmt.Sprintf("news-%d", i),
		Title:     fmt.Sprintf("Title %d", i),
		Category:  models.CategoryPolitics,
		Timestamp: time.Unix(int64(1700000000+i), 0).UTC(),
	}
}

func TestService_GetReturnsDefault(t *testing.T) {
	svc := NewService(NewMemoryStore(), models.DefaultProfile(), nil)

	p, err := svc.Get(context.Background(), "new-reader")

	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfile(), p)
}

func TestService_DefaultIsNotShared(t *testing.T) {
	defaults := models.DefaultProfile()
	svc := NewService(NewMemoryStore(), defaults, nil)

	defaults.Name = "changed"
	p, err := svc.Get(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, "Rohan Sharma", p.Name)

	p.Interests[0] = models.CategorySports
	again, err := svc.Get(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTechnology, again.Interests[0])
	assert.Equal(t, models.CategoryTechnology, svc.Default().Interests[0])
}

func TestService_RecordReadCapsHistory(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, models.DefaultProfile(), nil)
	ctx := context.Background()

	for i := 0; i < 21; i++ {
		_, err := svc.RecordRead(ctx, "r", entry(i))
		require.NoError(t, err)
	}

	p, err := svc.Get(ctx, "r")
	require.NoError(t, err)
	require.Len(t, p.ReadingHistory, models.MaxReadingHistory)
	for i, e := range p.ReadingHistory {
		assert.Equal(t, entry(i+1).ArticleID, e.ArticleID)
	}
}

func TestService_RecordReadStampsTime(t *testing.T) {
	svc := NewService(NewMemoryStore(), models.DefaultProfile(), nil)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	p, err := svc.RecordRead(context.Background(), "r", models.ReadingEntry{ArticleID: "a", Title: "A"})

	require.NoError(t, err)
	require.Len(t, p.ReadingHistory, 1)
	assert.Equal(t, at, p.ReadingHistory[0].Timestamp)
}

func TestService_RecordReadRequiresArticleID(t *testing.T) {
	svc := NewService(NewMemoryStore(), models.DefaultProfile(), nil)

	_, err := svc.RecordRead(context.Background(), "r", models.ReadingEntry{Title: "A"})

	assert.Error(t, err)
}

func TestService_StoreFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("load", func(t *testing.T) {
		svc := NewService(&failingStore{loadErr: boom}, models.DefaultProfile(), nil)

		p, err := svc.Get(context.Background(), "r")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "Rohan Sharma", p.Name)

		_, err = svc.RecordRead(context.Background(), "r", entry(1))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("save", func(t *testing.T) {
		svc := NewService(&failingStore{saveErr: boom}, models.DefaultProfile(), nil)

		_, err := svc.RecordRead(context.Background(), "r", entry(1))
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_ConcurrentReadsAreSerialized(t *testing.T) {
	svc := NewService(NewMemoryStore(), models.DefaultProfile(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.RecordRead(context.Background(), "r", entry(i))
		}(i)
	}
	wg.Wait()

	p, err := svc.Get(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, p.ReadingHistory, 10)
}
