package feed

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/models"
)

// ContractVersion names the article list shape the model is asked for.
const ContractVersion = "feed.v1"

// articleV1 is one element of a feed.v1 response. Pointers tell a missing key
// apart from a zero value; imageUrl is the only optional key.
type articleV1 struct {
	Title            *string  `json:"title" validate:"required"`
	Summary          *string  `json:"summary" validate:"required"`
	Source           *string  `json:"source" validate:"required"`
	URL              *string  `json:"url" validate:"required"`
	ImageURL         *string  `json:"imageUrl"`
	Category         *string  `json:"category" validate:"required"`
	IsIndian         *bool    `json:"isIndian" validate:"required"`
	CredibilityScore *float64 `json:"credibilityScore" validate:"required"`
	SimilarityScore  *float64 `json:"similarityScore" validate:"required"`
}

type responseV1 struct {
	Articles []articleV1 `validate:"dive"`
}

// Schema is the structured output shape sent with every feed query.
func Schema() *grounded.Schema {
	return grounded.ArrayOf(grounded.Object(map[string]*grounded.Schema{
		"title":            grounded.String("Headline"),
		"summary":          grounded.String("Concise 2-sentence summary"),
		"source":           grounded.String("Publisher name"),
		"url":              grounded.String("Original article URL"),
		"imageUrl":         grounded.String("Lead image URL, empty if none"),
		"category":         grounded.String(categoryHint()),
		"isIndian":         grounded.Boolean("Whether the source is Indian"),
		"credibilityScore": grounded.Number("Source credibility 0-100"),
		"similarityScore":  grounded.Number("Relevance to the reader's interests 0-100"),
	}))
}

func categoryHint() string {
	return "One of: " + categoryList()
}

func categoryList() string {
	names := make([]string, 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// decodeV1 decodes and validates a feed.v1 body. Any element missing a
// required key rejects the whole response.
func decodeV1(result *grounded.Result, validate *validator.Validate) ([]articleV1, error) {
	var items []articleV1
	if err := result.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ContractVersion, err)
	}
	if err := validate.Struct(responseV1{Articles: items}); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ContractVersion, err)
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// score rounds a producer score and clamps it to [0,100].
func score(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return models.ClampScore(int(math.Round(math.Max(-1, math.Min(101, *v)))))
}
