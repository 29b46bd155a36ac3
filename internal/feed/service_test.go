package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/tagging"
)

var fixedNow = time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func item(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":            title,
		"summary":          "Summary of " + title,
		"source":           "The Hindu",
		"url":              "https://example.test/" + title,
		"imageUrl":         "https://img.test/" + title + ".jpg",
		"category":         "Politics",
		"isIndian":         true,
		"credibilityScore": 75,
		"similarityScore":  60,
	}
}

type staticHeadlines []string

func (h staticHeadlines) Titles(n int) []string {
	if n < len(h) {
		return h[:n]
	}
	return h
}

func TestFetchFeed_ScenarioA(t *testing.T) {
	mock := &grounded.Mock{Result: grounded.JSONResult([]map[string]interface{}{{
		"title":            "X",
		"summary":          "Y",
		"source":           "Z",
		"url":              "u",
		"imageUrl":         "",
		"category":         "Technology",
		"isIndian":         true,
		"credibilityScore": 80,
		"similarityScore":  90,
	}})}
	svc := NewService(mock, nil, WithClock(clock))

	profile := models.UserProfile{Interests: []models.Category{models.CategoryTechnology}}
	articles := svc.FetchFeed(context.Background(), profile)

	require.Len(t, articles, 1)
	a := articles[0]
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.CategoryTechnology, a.Category)
	assert.Equal(t, models.FactCheckUnverified, a.FactCheckStatus)
	assert.Equal(t, "X", a.Title)
	assert.Equal(t, "Y", a.Summary)
	assert.Equal(t, "Z", a.Source)
	assert.Equal(t, "u", a.URL)
	assert.Equal(t, "", a.ImageURL)
	assert.True(t, a.IsIndian)
	assert.Equal(t, 80, a.CredibilityScore)
	assert.Equal(t, 90, a.SimilarityScore)
	assert.Equal(t, fixedNow, a.PublishedAt)
	assert.Equal(t, models.PlaceholderImage(a.ID), a.DisplayImage())

	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, grounded.ModeStructured, mock.Calls()[0].Shape.Mode)
}

func TestFetchFeed_NormalizationDeterminism(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			items := make([]map[string]interface{}, 0, n)
			for i := 0; i < n; i++ {
				items = append(items, item(fmt.Sprintf("story-%d", i)))
			}
			svc := NewService(&grounded.Mock{Result: grounded.JSONResult(items)}, nil, WithClock(clock))

			articles := svc.FetchFeed(context.Background(), models.DefaultProfile())

			require.Len(t, articles, n)
			require.NotNil(t, articles)
			seen := make(map[string]bool)
			for i, a := range articles {
				assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
				seen[a.ID] = true
				assert.Equal(t, fmt.Sprintf("news-%d-%d", fixedNow.UnixMilli(), i), a.ID)
				assert.Equal(t, models.FactCheckUnverified, a.FactCheckStatus)

				in := items[i]
				assert.Equal(t, in["title"], a.Title)
				assert.Equal(t, in["summary"], a.Summary)
				assert.Equal(t, in["source"], a.Source)
				assert.Equal(t, in["url"], a.URL)
				assert.Equal(t, in["imageUrl"], a.ImageURL)
				assert.Equal(t, models.CategoryPolitics, a.Category)
				assert.Equal(t, 75, a.CredibilityScore)
				assert.Equal(t, 60, a.SimilarityScore)
			}
		})
	}
}

func TestFetch_Status(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{item("a")})}, nil)
		res := svc.Fetch(context.Background(), models.DefaultProfile())
		assert.Equal(t, models.FeedLoaded, res.Status)
		assert.NoError(t, res.Err)
	})

	t.Run("empty", func(t *testing.T) {
		svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{})}, nil)
		res := svc.Fetch(context.Background(), models.DefaultProfile())
		assert.Equal(t, models.FeedEmpty, res.Status)
		assert.NotNil(t, res.Articles)
		assert.Empty(t, res.Articles)
		assert.NoError(t, res.Err)
	})

	t.Run("unavailable", func(t *testing.T) {
		svc := NewService(&grounded.Mock{Err: errors.New("network down")}, nil)
		res := svc.Fetch(context.Background(), models.DefaultProfile())
		assert.Equal(t, models.FeedUnavailable, res.Status)
		assert.NotNil(t, res.Articles)
		assert.Empty(t, res.Articles)
		var gqe *grounded.GroundedQueryError
		assert.ErrorAs(t, res.Err, &gqe)
	})
}

func TestFetchFeed_FailureFallback(t *testing.T) {
	errs := []error{
		errors.New("transport"),
		context.DeadlineExceeded,
		&grounded.GroundedQueryError{Mode: grounded.ModeStructured, Err: grounded.ErrSchemaMismatch},
	}

	for _, err := range errs {
		t.Run(err.Error(), func(t *testing.T) {
			svc := NewService(&grounded.Mock{Err: err}, nil)

			var articles []models.Article
			assert.NotPanics(t, func() {
				articles = svc.FetchFeed(context.Background(), models.DefaultProfile())
			})
			assert.NotNil(t, articles)
			assert.Empty(t, articles)
		})
	}
}

func TestFetchFeed_MissingRequiredKeyFailsClosed(t *testing.T) {
	for _, key := range []string{"title", "summary", "source", "url", "category", "isIndian", "credibilityScore", "similarityScore"} {
		t.Run(key, func(t *testing.T) {
			bad := item("b")
			delete(bad, key)
			svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{item("a"), bad})}, nil)

			res := svc.Fetch(context.Background(), models.DefaultProfile())

			assert.Equal(t, models.FeedUnavailable, res.Status)
			assert.Empty(t, res.Articles)
		})
	}
}

func TestFetchFeed_ImageURLIsOptional(t *testing.T) {
	in := item("a")
	delete(in, "imageUrl")
	svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{in})}, nil)

	articles := svc.FetchFeed(context.Background(), models.DefaultProfile())

	require.Len(t, articles, 1)
	assert.Empty(t, articles[0].ImageURL)
	assert.Equal(t, models.PlaceholderImage(articles[0].ID), articles[0].DisplayImage())
}

func TestFetchFeed_ZeroValuesAreNotMissing(t *testing.T) {
	in := item("a")
	in["isIndian"] = false
	in["credibilityScore"] = 0
	in["summary"] = ""
	svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{in})}, nil)

	articles := svc.FetchFeed(context.Background(), models.DefaultProfile())

	require.Len(t, articles, 1)
	assert.False(t, articles[0].IsIndian)
	assert.Equal(t, 0, articles[0].CredibilityScore)
	assert.Equal(t, "", articles[0].Summary)
}

func TestFetchFeed_ClampsScores(t *testing.T) {
	in := item("a")
	in["credibilityScore"] = 140
	in["similarityScore"] = -12.6
	in2 := item("b")
	in2["credibilityScore"] = 66.5
	in2["similarityScore"] = 1e300
	svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{in, in2})}, nil)

	articles := svc.FetchFeed(context.Background(), models.DefaultProfile())

	require.Len(t, articles, 2)
	assert.Equal(t, 100, articles[0].CredibilityScore)
	assert.Equal(t, 0, articles[0].SimilarityScore)
	assert.Equal(t, 67, articles[1].CredibilityScore)
	assert.Equal(t, 100, articles[1].SimilarityScore)
}

func TestFetchFeed_CategoryNormalization(t *testing.T) {
	tests := []struct {
		name     string
		category string
		title    string
		tagger   CategoryInferer
		want     models.Category
	}{
		{name: "exact", category: "Health", title: "a", want: models.CategoryHealth},
		{name: "case folded", category: "  technology ", title: "a", want: models.CategoryTechnology},
		{name: "unknown without tagger", category: "Business", title: "Sensex hits record", want: models.CategoryGeneral},
		{name: "unknown with tagger", category: "Business", title: "Sensex hits record", tagger: tagging.New(), want: models.CategoryFinance},
		{name: "unknown and untaggable", category: "Misc", title: "Quiet day", tagger: tagging.New(), want: models.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := item(tt.title)
			in["category"] = tt.category
			in["summary"] = ""
			opts := []Option{}
			if tt.tagger != nil {
				opts = append(opts, WithTagger(tt.tagger))
			}
			svc := NewService(&grounded.Mock{Result: grounded.JSONResult([]interface{}{in})}, nil, opts...)

			articles := svc.FetchFeed(context.Background(), models.DefaultProfile())

			require.Len(t, articles, 1)
			assert.Equal(t, tt.want, articles[0].Category)
		})
	}
}

func TestFetch_PromptIncludesHeadlines(t *testing.T) {
	mock := &grounded.Mock{Result: grounded.JSONResult([]interface{}{})}
	svc := NewService(mock, nil, WithHeadlines(staticHeadlines{"Monsoon reaches Kerala", "RBI holds rates"}))

	svc.Fetch(context.Background(), models.DefaultProfile())

	require.Equal(t, 1, mock.CallCount())
	prompt := mock.Calls()[0].Instruction
	assert.Contains(t, prompt, "- Monsoon reaches Kerala")
	assert.Contains(t, prompt, "- RBI holds rates")
}

func TestRefresh_ReplacesSnapshot(t *testing.T) {
	store := newTestStore(t)
	mock := &grounded.Mock{Result: grounded.JSONResult([]interface{}{item("a"), item("b")})}
	svc := NewService(mock, nil, WithStore(store), WithClock(clock))

	resp := svc.Refresh(context.Background(), "reader-1", models.DefaultProfile())
	assert.Equal(t, models.FeedLoaded, resp.Status)
	assert.Equal(t, 2, resp.TotalCount)

	snap, ok := store.Get("reader-1")
	require.True(t, ok)
	assert.Len(t, snap.Articles, 2)

	mock.Err = errors.New("down")
	resp = svc.Refresh(context.Background(), "reader-1", models.DefaultProfile())
	assert.Equal(t, models.FeedUnavailable, resp.Status)

	snap, ok = store.Get("reader-1")
	require.True(t, ok)
	assert.Equal(t, models.FeedUnavailable, snap.Status)
	assert.Empty(t, snap.Articles)
	assert.Same(t, store, svc.Store())
}

func TestBuildPrompt(t *testing.T) {
	profile := models.DefaultProfile()
	for i := 0; i < 7; i++ {
		profile.RecordRead(models.ReadingEntry{
			ArticleID: fmt.Sprintf("id-%d", i),
			Title:     fmt.Sprintf("Read %d", i),
			Category:  models.CategoryFinance,
			Timestamp: fixedNow,
		})
	}

	prompt := BuildPrompt(profile, nil)

	assert.Contains(t, prompt, "interested in Technology, Finance, Politics")
	assert.Contains(t, prompt, "PRIORITY 1: Major news from India in Delhi NCR, India.")
	assert.Contains(t, prompt, "PRIORITY 2: Global international news relevant to an Indian audience.")
	assert.Contains(t, prompt, "Read 6")
	assert.Contains(t, prompt, "Read 2")
	assert.NotContains(t, prompt, "Read 1")
	assert.NotContains(t, prompt, "wire headlines")
}

func TestBuildPrompt_Defaults(t *testing.T) {
	prompt := BuildPrompt(models.UserProfile{}, nil)

	assert.Contains(t, prompt, "interested in latest major news.")
	assert.Contains(t, prompt, "PRIORITY 1: Major news from India in India.")
	assert.NotContains(t, prompt, "recently read")
}

func TestBuildPrompt_CapsHeadlines(t *testing.T) {
	headlines := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		headlines = append(headlines, fmt.Sprintf("Headline %d", i))
	}

	prompt := BuildPrompt(models.UserProfile{}, headlines)

	assert.Equal(t, headlineSignal, strings.Count(prompt, "- Headline "))
}

func TestSchema(t *testing.T) {
	s := Schema()

	require.Equal(t, grounded.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Len(t, s.Items.Properties, 9)
	assert.ElementsMatch(t, []string{
		"title", "summary", "source", "url", "imageUrl", "category",
		"isIndian", "credibilityScore", "similarityScore",
	}, s.Items.Required)
}
